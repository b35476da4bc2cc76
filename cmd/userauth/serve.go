package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/yourusername/userauth/internal/auth"
	"github.com/yourusername/userauth/internal/metrics"
	"github.com/yourusername/userauth/internal/users"
	"github.com/yourusername/userauth/internal/web"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server (default)",
		RunE:  runServe(opts),
	}
}

func runServe(opts *rootOptions) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, opts)
	}
}

func serve(ctx context.Context, opts *rootOptions) error {
	cfg, logger, err := opts.load(os.Stdout)
	if err != nil {
		return err
	}

	gin.SetMode(cfg.GinMode)

	store, err := users.Open(ctx, cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	var m *metrics.Metrics
	if cfg.MetricsEnabled {
		m = metrics.New()
	}

	router, err := web.NewRouter(web.Deps{
		Config:  cfg,
		Store:   store,
		Hasher:  auth.NewBcryptHasher(cfg.BcryptCost),
		Metrics: m,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", srv.Addr, "mode", cfg.GinMode, "user_store", cfg.UserStore)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
