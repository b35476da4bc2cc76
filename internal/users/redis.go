package users

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"
)

const (
	userKeyPrefix  = "user:"
	emailKeyPrefix = "user-email:"
)

// RedisStore はユーザーを JSON として Redis に保存します。
// メールアドレスの一意性は user-email:<email> キーを Lua スクリプト内で確認して保証します。
type RedisStore struct {
	rdb *redis.Client
}

// NewRedisStore は RedisStore を作成します。
func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// OpenRedis は URL から接続を作成し、疎通を確認します。
func OpenRedis(ctx context.Context, redisURL string, retries int) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "parse redis url").Wrap(err)
	}
	rdb := redis.NewClient(opt)

	ping := func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	if err := pingWithRetry(ctx, retries, ping); err != nil {
		rdb.Close()
		return nil, oops.Code("DB_CONNECT_FAILED").With("operation", "ping redis").Wrap(err)
	}
	return NewRedisStore(rdb), nil
}

// createScript はメールアドレスの予約とユーザーレコードの保存を一度に行います。
// 予約済みでも参照先のレコードが無ければ引き継ぎます。
var createScript = redis.NewScript(`
local owner = redis.call('GET', KEYS[1])
if owner and redis.call('EXISTS', ARGV[3] .. owner) == 1 then
	return 0
end
redis.call('SET', KEYS[1], ARGV[1])
redis.call('SET', KEYS[2], ARGV[2])
return 1
`)

func (s *RedisStore) Create(ctx context.Context, user *User) error {
	prepare(user)

	payload, err := json.Marshal(user)
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").With("operation", "marshal user").Wrap(err)
	}

	keys := []string{emailKey(user.Email), userKey(user.ID)}
	created, err := createScript.Run(ctx, s.rdb, keys, user.ID, payload, userKeyPrefix).Int()
	if err != nil {
		return oops.Code("USER_CREATE_FAILED").With("operation", "store user").Wrap(err)
	}
	if created == 0 {
		return ErrDuplicateEmail
	}
	return nil
}

func (s *RedisStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	id, err := s.rdb.Get(ctx, emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("USER_LOOKUP_FAILED").With("operation", "get user by email").Wrap(err)
	}
	return s.FindByID(ctx, id)
}

func (s *RedisStore) FindByID(ctx context.Context, id string) (*User, error) {
	data, err := s.rdb.Get(ctx, userKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, oops.Code("USER_LOOKUP_FAILED").With("operation", "get user by id").With("id", id).Wrap(err)
	}
	var user User
	if err := json.Unmarshal(data, &user); err != nil {
		return nil, oops.Code("USER_LOOKUP_FAILED").With("operation", "decode user").With("id", id).Wrap(err)
	}
	return &user, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *RedisStore) Close() error {
	return s.rdb.Close()
}

func userKey(id string) string {
	return userKeyPrefix + id
}

func emailKey(email string) string {
	return emailKeyPrefix + email
}
