// Package users はユーザーレコードとその永続化（メモリ/PostgreSQL/SQLite/Redis）を提供します。
package users

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound は該当ユーザーが存在しない場合に返されます。
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail は同じメールアドレスのユーザーが既に存在する場合に返されます。
	ErrDuplicateEmail = errors.New("email already registered")
)

// User は登録済みユーザーを表します。平文パスワードは保持しません。
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Store はユーザーの永続化層です。
//
// Create はメールアドレスの一意性をストア自身が保証し、重複時は ErrDuplicateEmail を返します。
// 検索系は見つからない場合に ErrNotFound を返します（errors.Is で判定）。
type Store interface {
	Create(ctx context.Context, user *User) error
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id string) (*User, error)
	Ping(ctx context.Context) error
	Close() error
}

// prepare は保存前に ID と作成日時を割り当てます。
func prepare(user *User) {
	user.ID = uuid.NewString()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC().Truncate(time.Microsecond)
	}
}
