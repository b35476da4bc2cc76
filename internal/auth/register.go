package auth

import (
	"context"
	"errors"
	"log/slog"
	"unicode/utf8"

	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourusername/userauth/internal/users"
)

// 登録フォームの検証メッセージ
const (
	MsgFieldsRequired   = "All fields are required."
	MsgPasswordMismatch = "Passwords do not match."
	MsgPasswordTooShort = "Password must be at least 6 characters."
	MsgPasswordTooLong  = "Password must be at most 72 bytes."
	MsgEmailRegistered  = "Email is already registered."
)

// MinPasswordLength はパスワードの最小文字数です。
const MinPasswordLength = 6

// RegistrationForm は登録フォームの入力値です。失敗時はそのまま再表示に使います。
type RegistrationForm struct {
	Name                 string
	Email                string
	Password             string
	PasswordConfirmation string
}

// ValidationErrors は登録を拒否した理由の一覧です（表示順）。
type ValidationErrors []string

// Validate は全ルールを評価し、失敗したものをすべて返します。
func (f RegistrationForm) Validate() ValidationErrors {
	var errs ValidationErrors

	if f.Name == "" || f.Email == "" || f.Password == "" || f.PasswordConfirmation == "" {
		errs = append(errs, MsgFieldsRequired)
	}
	if f.Password != f.PasswordConfirmation {
		errs = append(errs, MsgPasswordMismatch)
	}
	// 空パスワードは上の必須チェックで報告済み
	if f.Password != "" && utf8.RuneCountInString(f.Password) < MinPasswordLength {
		errs = append(errs, MsgPasswordTooShort)
	}

	return errs
}

// Registrar は登録フローを実行します。
type Registrar struct {
	store  users.Store
	hasher Hasher
	logger *slog.Logger
}

// NewRegistrar は Registrar を作成します。
func NewRegistrar(store users.Store, hasher Hasher, logger *slog.Logger) *Registrar {
	return &Registrar{store: store, hasher: hasher, logger: logger}
}

// Register はフォームを検証し、新規ユーザーを保存します。
//
// 検証失敗・メール重複は ValidationErrors で返し（error は nil）、
// ストアやハッシュの障害のみ error で返します。
func (r *Registrar) Register(ctx context.Context, form RegistrationForm) (*users.User, ValidationErrors, error) {
	if errs := form.Validate(); len(errs) > 0 {
		return nil, errs, nil
	}

	_, err := r.store.FindByEmail(ctx, form.Email)
	switch {
	case err == nil:
		return nil, ValidationErrors{MsgEmailRegistered}, nil
	case !errors.Is(err, users.ErrNotFound):
		return nil, nil, oops.Code("REGISTER_FAILED").With("operation", "check email").Wrap(err)
	}

	hash, err := r.hasher.Hash(form.Password)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return nil, ValidationErrors{MsgPasswordTooLong}, nil
		}
		return nil, nil, oops.Code("REGISTER_FAILED").With("operation", "hash password").Wrap(err)
	}

	user := &users.User{
		Name:         form.Name,
		Email:        form.Email,
		PasswordHash: hash,
	}
	if err := r.store.Create(ctx, user); err != nil {
		// 事前チェック後に別リクエストが先に登録した場合
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, ValidationErrors{MsgEmailRegistered}, nil
		}
		return nil, nil, oops.Code("REGISTER_FAILED").With("operation", "save user").Wrap(err)
	}

	r.logger.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil, nil
}
