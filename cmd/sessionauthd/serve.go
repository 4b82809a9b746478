package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	sessionauth "github.com/deniswachira/sessionauth"
)

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE:  runServe,
	}

	defaults := sessionauth.DefaultConfig()
	flags := cmd.Flags()
	flags.String("http.addr", defaults.HTTP.Addr, "listen address")
	flags.String("http.cookie_name", defaults.HTTP.CookieName, "session cookie name")
	flags.String("session.backend", defaults.Session.Backend, "session backend: memory, redis or bolt")
	flags.Int("session.duration", defaults.Session.DurationSeconds, "session lifetime in seconds")
	flags.String("session.bolt_path", defaults.Session.BoltPath, "bbolt file for the bolt backend")
	flags.String("redis.addr", defaults.Redis.Addr, "redis address")
	flags.String("database.url", "", "postgres URL for user records; empty keeps users in memory")
	flags.Bool("metrics.enabled", defaults.Metrics.Enabled, "expose /metrics")
	flags.String("log.level", defaults.Log.Level, "log level: debug, info, warn or error")
	flags.String("log.format", defaults.Log.Format, "log format: json or text")

	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd.Flags())
	if err != nil {
		return err
	}
	logger := newLogger(cfg.Log, cmd.ErrOrStderr()).With("service", "sessionauthd", "version", version)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d, err := buildDeps(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := d.close(); err != nil {
			logger.Error("shutdown cleanup failed", "error", err)
		}
	}()

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           d.handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	done := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			done <- oops.Code("SERVER_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
			return
		}
		done <- nil
	}()

	logger.Info("listening",
		"addr", cfg.HTTP.Addr,
		"session_backend", cfg.Session.Backend,
		"postgres", cfg.Database.URL != "",
	)

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return oops.Code("SHUTDOWN_FAILED").Wrap(err)
		}
		return <-done
	case err := <-done:
		return err
	}
}
