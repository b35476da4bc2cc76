// Package auth はユーザー登録、認証、セッション管理、アクセスガードを提供します。
package auth

import (
	"errors"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

// DefaultCost は bcrypt のコスト係数の既定値です。
const DefaultCost = 10

// Hasher はパスワードの一方向変換と照合を行います。
type Hasher interface {
	// Hash は毎回新しいソルトでハッシュを生成します。
	Hash(password string) (string, error)

	// Verify は一致なら (true, nil)、不一致なら (false, nil)、
	// ハッシュが壊れている等の内部エラーは error を返します。
	Verify(password, hash string) (bool, error)
}

// BcryptHasher は bcrypt による Hasher 実装です。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher は BcryptHasher を作成します。範囲外のコストは DefaultCost に丸めます。
func NewBcryptHasher(cost int) *BcryptHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &BcryptHasher{cost: cost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

func (h *BcryptHasher) Verify(password, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, oops.Code("PASSWORD_VERIFY_FAILED").Wrap(err)
	}
}
