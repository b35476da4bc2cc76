package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	gsessions "github.com/gorilla/sessions"
	"github.com/samber/oops"

	"github.com/yourusername/userauth/internal/users"
)

const (
	SessionCookieName  = "userauth_session"
	sessionKeyUser     = "auth_user"
	sessionKeyIssuedAt = "issued_at"

	requestContextKey = "auth.request"
)

// 通知（フラッシュ）の種類。テンプレートではそれぞれ別の枠で表示します。
const (
	NoticeSuccess   = "success_msg"
	NoticeError     = "error_msg"
	NoticeRejection = "error"
)

// MsgLoginRequired はガードでリダイレクトしたときの通知です。
const MsgLoginRequired = "Please log in to view this resource"

// LoginPath はログインフォームのパスです。
const LoginPath = "/login"

// Notices は前のリクエストで積まれ、このリクエストで取り出された通知です。
type Notices struct {
	Success   []string
	Error     []string
	Rejection []string
}

// Empty は通知が一件もなければ true を返します。
func (n Notices) Empty() bool {
	return len(n.Success) == 0 && len(n.Error) == 0 && len(n.Rejection) == 0
}

// RequestContext はリクエスト単位の認証状態と送信待ち通知をまとめたものです。
// セッションミドルウェアが作成し、各ハンドラーは Current で取り出します。
type RequestContext struct {
	User    *users.User
	Notices Notices

	session sessions.Session
}

// Notify は次のリクエストで表示する通知を積みます。反映には Save が必要です。
func (rc *RequestContext) Notify(kind, message string) {
	rc.session.AddFlash(message, kind)
}

// Save はセッションへの変更をレスポンスに書き込みます。レスポンス本体より前に呼んでください。
func (rc *RequestContext) Save() error {
	if err := rc.session.Save(); err != nil {
		return oops.Code("SESSION_SAVE_FAILED").Wrap(err)
	}
	return nil
}

// Current は Sessions.Middleware が設定した RequestContext を返します。
func Current(c *gin.Context) *RequestContext {
	return c.MustGet(requestContextKey).(*RequestContext)
}

// FaultHandler は回復不能な障害をレスポンスに変換します。
type FaultHandler func(c *gin.Context, err error)

// Sessions はセッションへのユーザーID保存と、リクエストごとの再水和を担います。
type Sessions struct {
	store       users.Store
	maxLifetime time.Duration
	onFault     FaultHandler
	logger      *slog.Logger
	now         func() time.Time
	onRedirect  func(c *gin.Context)
}

// OnGuardRedirect はガードがリダイレクトするたびに呼ばれるフックを登録します。
func (s *Sessions) OnGuardRedirect(fn func(c *gin.Context)) *Sessions {
	s.onRedirect = fn
	return s
}

// NewSessions は Sessions を作成します。
func NewSessions(store users.Store, maxLifetime time.Duration, onFault FaultHandler, logger *slog.Logger) *Sessions {
	return &Sessions{
		store:       store,
		maxLifetime: maxLifetime,
		onFault:     onFault,
		logger:      logger,
		now:         time.Now,
	}
}

// Middleware は通知を取り出し、セッションのユーザーIDからユーザーを復元します。
// sessions.Sessions ミドルウェアの後に登録してください。
func (s *Sessions) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		session := sessions.Default(c)
		rc := &RequestContext{
			session: session,
			Notices: takeNotices(session),
		}
		c.Set(requestContextKey, rc)

		user, err := s.rehydrate(c.Request.Context(), session)
		if err != nil {
			s.onFault(c, err)
			c.Abort()
			return
		}
		rc.User = user
		c.Next()
	}
}

// Establish は認証済みユーザーのIDだけをセッションに書き込みます。
// サーバー側ストアではログイン前のセッションIDを引き継がず、保存時に新しいIDを発行します。
func (s *Sessions) Establish(rc *RequestContext, user *users.User) {
	rc.session.Clear()
	if raw, ok := rc.session.(rawSession); ok {
		if gs := raw.Session(); gs != nil {
			gs.ID = ""
		}
	}
	rc.session.Set(sessionKeyUser, user.ID)
	rc.session.Set(sessionKeyIssuedAt, s.now().Unix())
	rc.User = user
}

// Destroy はセッションを破棄します。未ログインでもエラーになりません。
func (s *Sessions) Destroy(rc *RequestContext) {
	rc.session.Clear()
	rc.User = nil
}

// RequireLogin は未ログインのリクエストをログインフォームへリダイレクトするガードです。
func (s *Sessions) RequireLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		rc := Current(c)
		if rc.User != nil {
			c.Next()
			return
		}

		rc.Notify(NoticeError, MsgLoginRequired)
		if err := rc.Save(); err != nil {
			s.onFault(c, err)
			c.Abort()
			return
		}
		if s.onRedirect != nil {
			s.onRedirect(c)
		}
		c.Redirect(http.StatusFound, LoginPath)
		c.Abort()
	}
}

func (s *Sessions) rehydrate(ctx context.Context, session sessions.Session) (*users.User, error) {
	id, ok := session.Get(sessionKeyUser).(string)
	if !ok || id == "" {
		return nil, nil
	}

	issuedAt := readUnix(session.Get(sessionKeyIssuedAt))
	if issuedAt.IsZero() || s.now().Sub(issuedAt) > s.maxLifetime {
		forget(session)
		return nil, nil
	}

	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			s.logger.InfoContext(ctx, "session refers to missing user", "user_id", id)
			forget(session)
			return nil, nil
		}
		return nil, oops.Code("SESSION_REHYDRATE_FAILED").
			With("user_id", id).
			Wrap(err)
	}
	return user, nil
}

// rawSession は gin-contrib/sessions が内部に持つ gorilla のセッションを公開します。
type rawSession interface {
	Session() *gsessions.Session
}

func forget(session sessions.Session) {
	session.Delete(sessionKeyUser)
	session.Delete(sessionKeyIssuedAt)
}

func takeNotices(session sessions.Session) Notices {
	return Notices{
		Success:   flashStrings(session.Flashes(NoticeSuccess)),
		Error:     flashStrings(session.Flashes(NoticeError)),
		Rejection: flashStrings(session.Flashes(NoticeRejection)),
	}
}

func flashStrings(values []any) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// readUnix はセッションに保存した Unix 秒を time.Time に戻します。
func readUnix(v any) time.Time {
	var sec int64
	switch n := v.(type) {
	case int64:
		sec = n
	case int:
		sec = int64(n)
	case float64:
		sec = int64(n)
	default:
		return time.Time{}
	}
	return time.Unix(sec, 0)
}
