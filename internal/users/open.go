package users

import (
	"context"
	"time"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"

	"github.com/yourusername/userauth/internal/config"
)

// Open は設定の USER_STORE に応じたストアを開きます。
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.UserStore {
	case config.UserStoreMemory:
		return NewMemoryStore(), nil
	case config.UserStorePostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL, cfg.StoreConnectRetries)
	case config.UserStoreSQLite:
		return OpenSQLite(ctx, cfg.SQLitePath)
	case config.UserStoreRedis:
		return OpenRedis(ctx, cfg.RedisURL, cfg.StoreConnectRetries)
	default:
		return nil, oops.Code("CONFIG_INVALID").With("user_store", cfg.UserStore).Errorf("unknown user store")
	}
}

// pingWithRetry は起動直後のデータベース未準備に備えて指数バックオフで疎通確認します。
func pingWithRetry(ctx context.Context, retries int, ping func(context.Context) error) error {
	if retries < 0 {
		retries = 0
	}
	backoff := retry.WithMaxRetries(uint64(retries), retry.NewExponential(200*time.Millisecond))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}
