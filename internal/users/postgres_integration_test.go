//go:build integration

package users

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func TestPostgresStoreIntegration(t *testing.T) {
	ctx := context.Background()

	container, err := postgres.Run(ctx,
		"postgres:17-alpine",
		postgres.WithDatabase("userauth_test"),
		postgres.WithUsername("userauth"),
		postgres.WithPassword("userauth"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	runStoreSuite(t, func(t *testing.T) Store {
		store, err := OpenPostgres(ctx, connStr, 3)
		require.NoError(t, err)
		t.Cleanup(func() {
			_, _ = store.pool.Exec(ctx, `DELETE FROM users`)
			_ = store.Close()
		})
		return store
	})
}
