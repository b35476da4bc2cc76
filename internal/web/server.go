// Package web はHTTPルーティングと画面ハンドラーを提供します。
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-contrib/sessions/memstore"
	"github.com/gin-gonic/gin"
	"github.com/samber/oops"

	"github.com/yourusername/userauth/internal/auth"
	"github.com/yourusername/userauth/internal/config"
	"github.com/yourusername/userauth/internal/logging"
	"github.com/yourusername/userauth/internal/metrics"
	"github.com/yourusername/userauth/internal/users"
)

//go:embed templates/*.html
var templatesFS embed.FS

//go:embed static
var staticFS embed.FS

// Deps はルーター構築に必要な依存関係です。
type Deps struct {
	Config  *config.Config
	Store   users.Store
	Hasher  auth.Hasher
	Metrics *metrics.Metrics // nil の場合 /metrics は公開しない
	Logger  *slog.Logger
}

// NewRouter はミドルウェアとルートを登録した Gin エンジンを返します。
func NewRouter(deps Deps) (*gin.Engine, error) {
	cfg := deps.Config

	tmpl, err := template.New("").ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, oops.Code("TEMPLATE_PARSE_FAILED").Wrap(err)
	}
	static, err := fs.Sub(staticFS, "static")
	if err != nil {
		return nil, oops.Code("STATIC_FS_FAILED").Wrap(err)
	}

	router := gin.New()
	router.Use(logging.Middleware(deps.Logger), gin.Recovery())
	router.SetHTMLTemplate(tmpl)

	if origins := cfg.AllowedOrigins(); len(origins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = origins
		corsConfig.AllowCredentials = true
		corsConfig.AllowMethods = []string{http.MethodGet, http.MethodPost}
		router.Use(cors.New(corsConfig))
	}

	h := &handlers{
		store:         deps.Store,
		registrar:     auth.NewRegistrar(deps.Store, deps.Hasher, deps.Logger),
		authenticator: auth.NewAuthenticator(deps.Store, deps.Hasher),
		metrics:       deps.Metrics,
		logger:        deps.Logger,
	}
	maxAge := time.Duration(cfg.SessionMaxAgeSeconds) * time.Second
	h.sessions = auth.NewSessions(deps.Store, maxAge, h.fault, deps.Logger).
		OnGuardRedirect(func(*gin.Context) { deps.Metrics.ObserveGuardRedirect() })

	// セッションを使わない運用系エンドポイント
	router.GET("/healthz", h.health)
	if deps.Metrics != nil {
		router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	router.StaticFS("/static", http.FS(static))

	pages := router.Group("")
	pages.Use(sessions.Sessions(auth.SessionCookieName, newSessionStore(cfg)))
	pages.Use(h.sessions.Middleware())
	{
		pages.GET("/", h.home)
		pages.GET("/register", h.registerForm)
		pages.POST("/register", h.register)
		pages.GET("/login", h.loginForm)
		pages.POST("/login", h.login)
		pages.GET("/logout", h.logout)
		pages.GET("/dashboard", h.sessions.RequireLogin(), h.dashboard)
	}

	return router, nil
}

func newSessionStore(cfg *config.Config) sessions.Store {
	var store sessions.Store
	switch cfg.SessionBackend {
	case config.SessionBackendMemory:
		store = memstore.NewStore(cfg.SecretOrDefault())
	default:
		store = cookie.NewStore(cfg.SecretOrDefault())
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAgeSeconds,
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	return store
}
