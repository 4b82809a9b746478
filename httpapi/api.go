package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	sessionauth "github.com/deniswachira/sessionauth"
	"github.com/deniswachira/sessionauth/middleware"
)

// Auth is the engine surface the handlers use. *sessionauth.Engine
// satisfies it.
type Auth interface {
	RegisterUser(ctx context.Context, email, password string) (*sessionauth.User, error)
	ValidLogin(ctx context.Context, email, password string) bool
	CreateSession(ctx context.Context, email string) (string, error)
	GetUserFromSessionID(ctx context.Context, sessionID string) (*sessionauth.User, error)
	DestroySession(ctx context.Context, userID string) error
	GetResetPasswordToken(ctx context.Context, email string) (string, error)
	UpdatePassword(ctx context.Context, resetToken, newPassword string) error
}

// API holds the dependencies of the HTTP handlers.
type API struct {
	auth       Auth
	cookies    *middleware.Cookies
	sessionTTL time.Duration
	metrics    http.Handler
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an API.
type Option func(*API)

// WithCookies replaces the default unsigned "session_id" cookie codec.
func WithCookies(c *middleware.Cookies) Option {
	return func(a *API) {
		a.cookies = c
	}
}

// WithSessionTTL bounds signed cookie tokens. It should match the engine's
// session duration.
func WithSessionTTL(ttl time.Duration) Option {
	return func(a *API) {
		a.sessionTTL = ttl
	}
}

// WithMetricsHandler mounts h at GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(a *API) {
		a.metrics = h
	}
}

// WithLogger sets the logger for handler failures.
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		a.logger = logger
	}
}

// WithClock overrides the clock used for cookie expiry.
func WithClock(now func() time.Time) Option {
	return func(a *API) {
		a.now = now
	}
}

// New creates an API over auth.
func New(auth Auth, opts ...Option) *API {
	a := &API{
		auth:       auth,
		sessionTTL: time.Hour,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.cookies == nil {
		a.cookies = middleware.NewCookies(middleware.DefaultCookieName)
	}
	if a.logger == nil {
		a.logger = slog.New(slog.DiscardHandler)
	}
	return a
}

// Router returns a chi.Router with every route mounted.
func (a *API) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)

	r.Get("/", a.Welcome)
	r.Post("/users", a.RegisterUser)
	r.Post("/sessions", a.Login)
	r.With(middleware.Guard(a.auth, a.cookies)).Delete("/sessions", a.Logout)
	r.With(middleware.Guard(a.auth, a.cookies)).Get("/profile", a.Profile)
	r.Post("/reset_password", a.ResetPasswordToken)
	r.Put("/reset_password", a.UpdatePassword)

	if a.metrics != nil {
		r.Method(http.MethodGet, "/metrics", a.metrics)
	}
	return r
}
