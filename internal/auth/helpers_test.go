package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/userauth/internal/users"
)

// faultyStore は MemoryStore に障害を差し込むテスト用ストアです。
type faultyStore struct {
	*users.MemoryStore
	findByEmailErr error
	findByIDErr    error
	createErr      error
	created        int
}

func newFaultyStore() *faultyStore {
	return &faultyStore{MemoryStore: users.NewMemoryStore()}
}

func (s *faultyStore) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	if s.findByEmailErr != nil {
		return nil, s.findByEmailErr
	}
	return s.MemoryStore.FindByEmail(ctx, email)
}

func (s *faultyStore) FindByID(ctx context.Context, id string) (*users.User, error) {
	if s.findByIDErr != nil {
		return nil, s.findByIDErr
	}
	return s.MemoryStore.FindByID(ctx, id)
}

func (s *faultyStore) Create(ctx context.Context, user *users.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.created++
	return s.MemoryStore.Create(ctx, user)
}

func testHasher() *BcryptHasher {
	return NewBcryptHasher(bcrypt.MinCost)
}
