package auth

import (
	"context"
	"errors"

	"github.com/samber/oops"

	"github.com/yourusername/userauth/internal/users"
)

// RejectReason は認証拒否の理由です。
type RejectReason string

const (
	EmailNotRegistered RejectReason = "email_not_registered"
	IncorrectPassword  RejectReason = "incorrect_password"
)

// Message は利用者向けの通知文です。
func (r RejectReason) Message() string {
	switch r {
	case EmailNotRegistered:
		return "Email is not registered"
	case IncorrectPassword:
		return "Incorrect Password"
	default:
		return "Invalid credentials"
	}
}

// Rejection は回復可能な認証拒否です。障害（それ以外の error）とは errors.As で区別します。
type Rejection struct {
	Reason RejectReason
}

func (r *Rejection) Error() string {
	return r.Reason.Message()
}

// AsRejection は err が認証拒否であればその内容を返します。
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}

// Authenticator はメールアドレスとパスワードでユーザーを認証します。
type Authenticator struct {
	store  users.Store
	hasher Hasher
}

// NewAuthenticator は Authenticator を作成します。
func NewAuthenticator(store users.Store, hasher Hasher) *Authenticator {
	return &Authenticator{store: store, hasher: hasher}
}

// Authenticate は認証済みユーザー、*Rejection、または障害のいずれかを返します。
func (a *Authenticator) Authenticate(ctx context.Context, email, password string) (*users.User, error) {
	user, err := a.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, &Rejection{Reason: EmailNotRegistered}
		}
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "get user by email").
			Wrap(err)
	}

	ok, err := a.hasher.Verify(password, user.PasswordHash)
	if err != nil {
		return nil, oops.Code("AUTH_LOGIN_FAILED").
			With("operation", "verify password").
			With("user_id", user.ID).
			Wrap(err)
	}
	if !ok {
		return nil, &Rejection{Reason: IncorrectPassword}
	}
	return user, nil
}
