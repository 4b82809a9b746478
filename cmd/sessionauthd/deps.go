package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/samber/oops"

	sessionauth "github.com/deniswachira/sessionauth"
	"github.com/deniswachira/sessionauth/httpapi"
	"github.com/deniswachira/sessionauth/jwt"
	"github.com/deniswachira/sessionauth/metrics/export/prometheus"
	"github.com/deniswachira/sessionauth/middleware"
	"github.com/deniswachira/sessionauth/user"
	"github.com/deniswachira/sessionauth/user/postgres"
)

// deps holds everything serve wires together. close releases them in
// reverse order of acquisition.
type deps struct {
	engine  *sessionauth.Engine
	handler http.Handler
	closers []func() error
}

func (d *deps) close() error {
	var errs []error
	for i := len(d.closers) - 1; i >= 0; i-- {
		errs = append(errs, d.closers[i]())
	}
	return errors.Join(errs...)
}

// usesRedis reports whether cfg needs a Redis client: for the session
// backend or for login throttling.
func usesRedis(cfg sessionauth.Config) bool {
	if cfg.Session.Backend == sessionauth.SessionBackendRedis {
		return true
	}
	return cfg.Login.MaxAttempts > 0 && cfg.Redis.Addr != ""
}

func buildDeps(ctx context.Context, cfg sessionauth.Config, logger *slog.Logger) (_ *deps, err error) {
	d := &deps{}
	defer func() {
		if err != nil {
			_ = d.close()
		}
	}()

	users, err := openUserStore(ctx, cfg, d)
	if err != nil {
		return nil, err
	}

	b := sessionauth.New().WithConfig(cfg).WithUserStore(users).WithLogger(logger)

	if usesRedis(cfg) {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		d.closers = append(d.closers, client.Close)
		if err := client.Ping(ctx).Err(); err != nil {
			if cfg.Session.Backend == sessionauth.SessionBackendRedis {
				return nil, oops.Code("REDIS_CONNECT_FAILED").With("addr", cfg.Redis.Addr).Wrap(err)
			}
			logger.WarnContext(ctx, "redis unreachable, login throttling will fail open", "addr", cfg.Redis.Addr)
		}
		b = b.WithRedis(client)
	}

	engine, err := b.Build()
	if err != nil {
		return nil, oops.Code("ENGINE_BUILD_FAILED").Wrap(err)
	}
	d.engine = engine
	d.closers = append(d.closers, engine.Close)

	handler, err := newRouter(engine, cfg, logger)
	if err != nil {
		return nil, err
	}
	d.handler = handler
	return d, nil
}

func openUserStore(ctx context.Context, cfg sessionauth.Config, d *deps) (user.Store, error) {
	if cfg.Database.URL == "" {
		return user.NewMemoryStore(), nil
	}

	pool, err := pgxpool.New(ctx, cfg.Database.URL)
	if err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	d.closers = append(d.closers, func() error {
		pool.Close()
		return nil
	})
	if err := pool.Ping(ctx); err != nil {
		return nil, oops.Code("DB_CONNECT_FAILED").Wrap(err)
	}
	return postgres.New(pool), nil
}

func newRouter(engine *sessionauth.Engine, cfg sessionauth.Config, logger *slog.Logger) (http.Handler, error) {
	var cookieOpts []middleware.CookieOption
	if cfg.HTTP.CookieSigningKey != "" {
		signer, err := jwt.NewManager(jwt.Config{
			Key:    []byte(cfg.HTTP.CookieSigningKey),
			Issuer: "sessionauthd",
		})
		if err != nil {
			return nil, oops.Code("CONFIG_INVALID").Wrap(err)
		}
		cookieOpts = append(cookieOpts, middleware.WithSigner(signer))
	}

	opts := []httpapi.Option{
		httpapi.WithCookies(middleware.NewCookies(cfg.HTTP.CookieName, cookieOpts...)),
		httpapi.WithSessionTTL(cfg.Session.Duration()),
		httpapi.WithLogger(logger),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, httpapi.WithMetricsHandler(prometheus.NewExporter(engine).Handler()))
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	r.Mount("/", httpapi.New(engine, opts...).Router())
	return r, nil
}
