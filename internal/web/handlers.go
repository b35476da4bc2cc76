package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/userauth/internal/auth"
	"github.com/yourusername/userauth/internal/metrics"
	"github.com/yourusername/userauth/internal/users"
)

// 成功時の通知
const (
	MsgRegistered = "You're now registered and can now log in."
	MsgLoggedOut  = "Successfully logged out"
)

const healthTimeout = 2 * time.Second

type handlers struct {
	store         users.Store
	registrar     *auth.Registrar
	authenticator *auth.Authenticator
	sessions      *auth.Sessions
	metrics       *metrics.Metrics
	logger        *slog.Logger
}

func (h *handlers) home(c *gin.Context) {
	h.render(c, http.StatusOK, "home.html", gin.H{"Title": "Home"})
}

func (h *handlers) registerForm(c *gin.Context) {
	h.render(c, http.StatusOK, "register.html", gin.H{
		"Title": "Register",
		"Form":  auth.RegistrationForm{},
	})
}

// register は POST /register のハンドラーです。
// 検証エラーはフォームを入力値付きで再表示し、障害は 500 を返します。
func (h *handlers) register(c *gin.Context) {
	form := auth.RegistrationForm{
		Name:                 c.PostForm("name"),
		Email:                c.PostForm("email"),
		Password:             c.PostForm("password"),
		PasswordConfirmation: c.PostForm("password2"),
	}

	_, errs, err := h.registrar.Register(c.Request.Context(), form)
	if err != nil {
		h.metrics.ObserveRegistration(metrics.OutcomeError)
		h.fault(c, err)
		return
	}
	if len(errs) > 0 {
		h.metrics.ObserveRegistration(metrics.OutcomeInvalid)
		h.render(c, http.StatusOK, "register.html", gin.H{
			"Title":  "Register",
			"Errors": errs,
			"Form":   form,
		})
		return
	}

	h.metrics.ObserveRegistration(metrics.OutcomeSuccess)
	rc := auth.Current(c)
	rc.Notify(auth.NoticeSuccess, MsgRegistered)
	h.redirect(c, auth.LoginPath)
}

func (h *handlers) loginForm(c *gin.Context) {
	h.render(c, http.StatusOK, "login.html", gin.H{"Title": "Login"})
}

// login は POST /login のハンドラーです。
func (h *handlers) login(c *gin.Context) {
	rc := auth.Current(c)

	user, err := h.authenticator.Authenticate(c.Request.Context(), c.PostForm("email"), c.PostForm("password"))
	if err != nil {
		if rej, ok := auth.AsRejection(err); ok {
			h.metrics.ObserveLogin(metrics.OutcomeRejected, string(rej.Reason))
			h.logger.InfoContext(c.Request.Context(), "login rejected", "reason", rej.Reason)
			rc.Notify(auth.NoticeRejection, rej.Error())
			h.redirect(c, auth.LoginPath)
			return
		}
		h.metrics.ObserveLogin(metrics.OutcomeError, "")
		h.fault(c, err)
		return
	}

	h.metrics.ObserveLogin(metrics.OutcomeSuccess, "")
	h.sessions.Establish(rc, user)
	h.redirect(c, "/dashboard")
}

func (h *handlers) logout(c *gin.Context) {
	rc := auth.Current(c)
	h.sessions.Destroy(rc)
	h.metrics.ObserveLogout()
	rc.Notify(auth.NoticeSuccess, MsgLoggedOut)
	h.redirect(c, "/")
}

func (h *handlers) dashboard(c *gin.Context) {
	rc := auth.Current(c)
	h.render(c, http.StatusOK, "dashboard.html", gin.H{
		"Title": "Dashboard",
		"Name":  rc.User.Name,
	})
}

// health はヘルスチェックエンドポイントのハンドラーです。
func (h *handlers) health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := h.store.Ping(ctx); err != nil {
		h.logger.WarnContext(ctx, "health check failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":  "unavailable",
			"service": "userauth",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "userauth",
	})
}

// render はセッションを保存してからテンプレートを描画します。
func (h *handlers) render(c *gin.Context, status int, name string, data gin.H) {
	rc := auth.Current(c)
	if err := rc.Save(); err != nil {
		h.fault(c, err)
		return
	}
	data["User"] = rc.User
	data["Notices"] = rc.Notices
	c.HTML(status, name, data)
}

// redirect はセッションを保存してから 302 でリダイレクトします。
func (h *handlers) redirect(c *gin.Context, location string) {
	if err := auth.Current(c).Save(); err != nil {
		h.fault(c, err)
		return
	}
	c.Redirect(http.StatusFound, location)
}

// fault は回復不能な障害をログに残し、汎用のエラーページを返します。
func (h *handlers) fault(c *gin.Context, err error) {
	h.logger.ErrorContext(c.Request.Context(), "request failed",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"error", err,
	)
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{"Title": "Error"})
	c.Abort()
}
