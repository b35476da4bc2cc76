package users

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, rdb
}

func TestRedisStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		_, rdb := newTestRedis(t)
		return NewRedisStore(rdb)
	})
}

func TestRedisStoreKeys(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisStore(rdb)

	user := &User{Name: "A", Email: "a@x.com", PasswordHash: "h"}
	require.NoError(t, store.Create(context.Background(), user))

	id, err := mr.Get("user-email:a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)
	assert.True(t, mr.Exists("user:"+user.ID))
}

func TestRedisStoreCorruptRecord(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisStore(rdb)

	require.NoError(t, mr.Set("user:broken", "{not json"))

	_, err := store.FindByID(context.Background(), "broken")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestOpenRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := OpenRedis(context.Background(), "redis://"+mr.Addr()+"/0", 0)
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.Ping(context.Background()))

	_, err = OpenRedis(context.Background(), "://bad-url", 0)
	assert.Error(t, err)
}

func TestRedisStoreCreateReclaimsOrphanedEmail(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisStore(rdb)
	ctx := context.Background()

	// レコードの無い予約だけが残った状態
	require.NoError(t, mr.Set("user-email:a@x.com", "lost-id"))

	_, err := store.FindByEmail(ctx, "a@x.com")
	require.ErrorIs(t, err, ErrNotFound)

	user := &User{Name: "A", Email: "a@x.com", PasswordHash: "h"}
	require.NoError(t, store.Create(ctx, user))

	found, err := store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	err = store.Create(ctx, &User{Name: "B", Email: "a@x.com", PasswordHash: "h"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestRedisStoreCreateWritesNothingOnFailure(t *testing.T) {
	mr, rdb := newTestRedis(t)
	store := NewRedisStore(rdb)

	mr.SetError("server unavailable")
	err := store.Create(context.Background(), &User{Name: "A", Email: "a@x.com", PasswordHash: "h"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)

	mr.SetError("")
	assert.False(t, mr.Exists("user-email:a@x.com"))
	assert.Empty(t, mr.Keys())
}
