package users

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreSuite は全バックエンド共通の振る舞いを検証します。
func runStoreSuite(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("create assigns id and finds by email and id", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		user := &User{Name: "A", Email: "a@x.com", PasswordHash: "$2a$10$hash"}
		require.NoError(t, store.Create(ctx, user))
		require.NotEmpty(t, user.ID)
		assert.False(t, user.CreatedAt.IsZero())

		byEmail, err := store.FindByEmail(ctx, "a@x.com")
		require.NoError(t, err)
		assert.Equal(t, user.ID, byEmail.ID)
		assert.Equal(t, "A", byEmail.Name)
		assert.Equal(t, "$2a$10$hash", byEmail.PasswordHash)

		byID, err := store.FindByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "a@x.com", byID.Email)
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Create(ctx, &User{Name: "A", Email: "dup@x.com", PasswordHash: "h1"}))
		err := store.Create(ctx, &User{Name: "B", Email: "dup@x.com", PasswordHash: "h2"})
		assert.ErrorIs(t, err, ErrDuplicateEmail)

		found, err := store.FindByEmail(ctx, "dup@x.com")
		require.NoError(t, err)
		assert.Equal(t, "A", found.Name)
	})

	t.Run("email comparison is exact", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		require.NoError(t, store.Create(ctx, &User{Name: "A", Email: "case@x.com", PasswordHash: "h"}))
		_, err := store.FindByEmail(ctx, "CASE@x.com")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("missing user returns ErrNotFound", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		_, err := store.FindByEmail(ctx, "nobody@x.com")
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = store.FindByID(ctx, "no-such-id")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent creates with same email keep exactly one", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()

		const attempts = 8
		var wg sync.WaitGroup
		errs := make([]error, attempts)
		for i := 0; i < attempts; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				errs[i] = store.Create(ctx, &User{Name: "racer", Email: "race@x.com", PasswordHash: "h"})
			}(i)
		}
		wg.Wait()

		succeeded := 0
		for _, err := range errs {
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, ErrDuplicateEmail):
			default:
				t.Fatalf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, succeeded)
	})

	t.Run("ping", func(t *testing.T) {
		store := newStore(t)
		assert.NoError(t, store.Ping(context.Background()))
	})
}

func TestMemoryStore(t *testing.T) {
	runStoreSuite(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestMemoryStoreDeleteAndCount(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	user := &User{Name: "A", Email: "a@x.com", PasswordHash: "h"}
	require.NoError(t, store.Create(ctx, user))
	assert.Equal(t, 1, store.Count())

	store.Delete(ctx, user.ID)
	assert.Equal(t, 0, store.Count())
	_, err := store.FindByID(ctx, user.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// 削除後は同じメールで再登録できる
	require.NoError(t, store.Create(ctx, &User{Name: "A2", Email: "a@x.com", PasswordHash: "h"}))
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	user := &User{Name: "A", Email: "a@x.com", PasswordHash: "h"}
	require.NoError(t, store.Create(ctx, user))

	found, err := store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	found.Name = "mutated"

	again, err := store.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Name)
}
