package sessionauth

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/deniswachira/sessionauth/internal/errutil"
	"github.com/deniswachira/sessionauth/internal/rate"
	"github.com/deniswachira/sessionauth/password"
	"github.com/deniswachira/sessionauth/session"
	"github.com/deniswachira/sessionauth/user"
)

// Engine is the auth facade. Build one with [New] and [Builder.Build].
type Engine struct {
	config    Config
	users     user.Store
	sessions  *session.Manager
	hasher    password.Hasher
	dummyHash string
	limiter   *rate.Limiter
	metrics   *Metrics
	logger    *slog.Logger
	closer    io.Closer
}

// upgrader is implemented by hashers that can flag outdated digests.
type upgrader interface {
	NeedsUpgrade(digest string) (bool, error)
}

// Close releases the session backend when the engine opened it.
func (e *Engine) Close() error {
	if e == nil || e.closer == nil {
		return nil
	}
	return e.closer.Close()
}

// Sessions exposes the session engine.
func (e *Engine) Sessions() *session.Manager {
	return e.sessions
}

// Config returns a copy of the engine configuration.
func (e *Engine) Config() Config {
	return cloneConfig(e.config)
}

// MetricsSnapshot returns the current counters.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil {
		return (*Metrics)(nil).Snapshot()
	}
	return e.metrics.Snapshot()
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) ready() error {
	if e == nil || e.users == nil || e.sessions == nil || e.hasher == nil {
		return ErrEngineNotReady
	}
	return nil
}

/*
====================================
REGISTRATION
====================================
*/

// RegisterUser hashes password and stores a new user. It fails with
// ErrDuplicateEmail, leaving the existing record untouched, when email is
// already registered.
func (e *Engine) RegisterUser(ctx context.Context, email, password string) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(email) == "" {
		return nil, ErrInvalidEmail
	}
	if err := e.checkPasswordPolicy(password); err != nil {
		return nil, err
	}

	_, err := e.users.FindOne(ctx, user.Filter{user.FieldEmail: email})
	switch {
	case err == nil:
		e.metricInc(MetricRegisterDuplicate)
		return nil, oops.Code("DUPLICATE_EMAIL").With("email", email).Wrap(ErrDuplicateEmail)
	case !errors.Is(err, user.ErrNotFound):
		return nil, err
	}

	hashed, err := e.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	u, err := e.users.Add(ctx, email, hashed)
	if err != nil {
		// Lost a race with a concurrent registration of the same email.
		if errors.Is(err, user.ErrDuplicateEmail) {
			e.metricInc(MetricRegisterDuplicate)
		}
		return nil, err
	}

	e.metricInc(MetricRegisterSuccess)
	e.logger.InfoContext(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

func (e *Engine) checkPasswordPolicy(plaintext string) error {
	if len(plaintext) < e.config.Password.MinLength {
		return oops.Code("PASSWORD_POLICY").
			With("min_length", e.config.Password.MinLength).
			Wrap(ErrPasswordPolicy)
	}
	if max := e.config.Password.MaxPasswordBytes; max > 0 && len(plaintext) > max {
		return oops.Code("PASSWORD_POLICY").
			With("max_bytes", max).
			Wrap(ErrPasswordPolicy)
	}
	return nil
}

/*
====================================
LOGIN
====================================
*/

// ValidLogin reports whether password matches the one stored for email. It
// never tells an unknown email apart from a wrong password and never fails.
func (e *Engine) ValidLogin(ctx context.Context, email, password string) bool {
	if e.ready() != nil {
		return false
	}

	if e.throttled(ctx, email) {
		e.metricInc(MetricLoginThrottled)
		e.metricInc(MetricLoginFailure)
		return false
	}

	u, err := e.users.FindOne(ctx, user.Filter{user.FieldEmail: email})
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			errutil.LogError(ctx, e.logger, slog.LevelWarn, "login lookup failed", err)
		}
		_, _ = e.hasher.Verify(password, e.dummyHash)
		e.loginFailed(ctx, email)
		return false
	}

	ok, err := e.hasher.Verify(password, u.HashedPassword)
	if err != nil {
		errutil.LogError(ctx, e.logger, slog.LevelWarn, "stored password digest unusable",
			oops.Code("PASSWORD_DIGEST_INVALID").With("user_id", u.ID).Wrap(err))
		ok = false
	}
	if !ok {
		e.loginFailed(ctx, email)
		return false
	}

	e.loginSucceeded(ctx, u, password)
	return true
}

func (e *Engine) throttled(ctx context.Context, email string) bool {
	if e.limiter == nil {
		return false
	}
	err := e.limiter.CheckLogin(ctx, email)
	switch {
	case err == nil:
		return false
	case errors.Is(err, rate.ErrRateLimited):
		return true
	default:
		errutil.LogError(ctx, e.logger, slog.LevelWarn, "login throttle unavailable", err)
		return false
	}
}

func (e *Engine) loginFailed(ctx context.Context, email string) {
	e.metricInc(MetricLoginFailure)
	if e.limiter == nil {
		return
	}
	if err := e.limiter.IncrementLogin(ctx, email); err != nil && !errors.Is(err, rate.ErrRateLimited) {
		errutil.LogError(ctx, e.logger, slog.LevelWarn, "login throttle unavailable", err)
	}
}

func (e *Engine) loginSucceeded(ctx context.Context, u *User, plaintext string) {
	e.metricInc(MetricLoginSuccess)
	if e.limiter != nil {
		if err := e.limiter.ResetLogin(ctx, u.Email); err != nil {
			errutil.LogError(ctx, e.logger, slog.LevelWarn, "login throttle unavailable", err)
		}
	}

	if !e.config.Password.UpgradeOnLogin {
		return
	}
	up, ok := e.hasher.(upgrader)
	if !ok {
		return
	}
	stale, err := up.NeedsUpgrade(u.HashedPassword)
	if err != nil || !stale {
		return
	}
	rehashed, err := e.hasher.Hash(plaintext)
	if err != nil {
		errutil.LogError(ctx, e.logger, slog.LevelWarn, "password rehash failed", err)
		return
	}
	if err := e.users.Update(ctx, u.ID, user.Update{user.FieldHashedPassword: user.Value(rehashed)}); err != nil {
		errutil.LogError(ctx, e.logger, slog.LevelWarn, "password rehash not stored", err)
		return
	}
	e.logger.InfoContext(ctx, "password digest upgraded", "user_id", u.ID)
}

/*
====================================
SESSIONS
====================================
*/

// CreateSession starts a session for the user registered under email and
// records it on the user. An unknown email returns "" with a nil error. Any
// session previously recorded on the user is destroyed first.
func (e *Engine) CreateSession(ctx context.Context, email string) (string, error) {
	if err := e.ready(); err != nil {
		return "", err
	}

	u, err := e.users.FindOne(ctx, user.Filter{user.FieldEmail: email})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", nil
		}
		return "", err
	}

	if u.SessionID != nil && *u.SessionID != "" {
		e.destroyEngineSession(ctx, u.ID, *u.SessionID)
	}

	sid, err := e.sessions.Create(ctx, u.ID)
	if err != nil {
		errutil.LogError(ctx, e.logger, slog.LevelError, "session create failed", err)
		return "", oops.Code("SESSION_CREATE_FAILED").With("user_id", u.ID).Wrap(errors.Join(ErrSessionCreationFailed, err))
	}

	if err := e.users.Update(ctx, u.ID, user.Update{user.FieldSessionID: user.Value(sid)}); err != nil {
		// Roll back so the engine never holds a session the user row does not know about.
		e.destroyEngineSession(ctx, u.ID, sid)
		return "", err
	}

	e.metricInc(MetricSessionCreated)
	e.logger.InfoContext(ctx, "session created", "user_id", u.ID)
	return sid, nil
}

// GetUserFromSessionID returns the user owning a valid session, or nil when
// sessionID is empty, unknown or expired, when its user no longer exists, or
// when the user no longer records it as their session.
func (e *Engine) GetUserFromSessionID(ctx context.Context, sessionID string) (*User, error) {
	if err := e.ready(); err != nil {
		return nil, err
	}
	if sessionID == "" {
		return nil, nil
	}

	start := time.Now()
	rec, err := e.sessions.Resolve(ctx, sessionID)
	e.metrics.Observe(MetricSessionLookupLatency, time.Since(start))
	switch {
	case err == nil:
	case errors.Is(err, session.ErrSessionExpired):
		e.metricInc(MetricSessionLookupExpired)
		errutil.LogError(ctx, e.logger, slog.LevelDebug, "session expired", err)
		return nil, nil
	case errors.Is(err, session.ErrSessionNotFound), errors.Is(err, session.ErrNoSessionID):
		return nil, nil
	default:
		return nil, err
	}

	u, err := e.users.FindOne(ctx, user.Filter{user.FieldID: rec.UserID})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			e.logger.WarnContext(ctx, "session owner missing", "user_id", rec.UserID)
			return nil, nil
		}
		return nil, err
	}
	// The user row names the live session; anything else is a leftover of a
	// logout or re-login the session store did not see.
	if u.SessionID == nil || *u.SessionID != rec.ID {
		e.logger.DebugContext(ctx, "session superseded", "user_id", u.ID)
		return nil, nil
	}
	return u, nil
}

// Profile is GetUserFromSessionID for callers that need an identity: no
// user becomes ErrUnauthorized.
func (e *Engine) Profile(ctx context.Context, sessionID string) (*User, error) {
	u, err := e.GetUserFromSessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, ErrUnauthorized
	}
	return u, nil
}

// DestroySession logs userID out: its engine session is destroyed and the
// session reference on the user is cleared. Teardown failures in the session
// engine are logged, not returned; clearing the reference alone is enough to
// stop the session resolving. Unknown users are a no-op.
func (e *Engine) DestroySession(ctx context.Context, userID string) error {
	if err := e.ready(); err != nil {
		return err
	}
	if userID == "" {
		return nil
	}

	u, err := e.users.FindOne(ctx, user.Filter{user.FieldID: userID})
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return nil
		}
		return err
	}

	sid := ""
	if u.SessionID != nil {
		sid = *u.SessionID
	}
	if sid == "" {
		sid, err = e.sessions.SessionIDForUser(ctx, userID)
		if err != nil {
			errutil.LogError(ctx, e.logger, slog.LevelWarn, "session lookup for logout failed", err)
		}
	}
	if sid != "" {
		e.destroyEngineSession(ctx, userID, sid)
	}

	if u.SessionID == nil {
		return nil
	}
	return e.users.Update(ctx, userID, user.Update{user.FieldSessionID: nil})
}

func (e *Engine) destroyEngineSession(ctx context.Context, userID, sessionID string) session.DestroyResult {
	res := e.sessions.Destroy(ctx, sessionID)
	if res.OK() {
		e.metricInc(MetricSessionDestroyed)
		return res
	}

	level := slog.LevelWarn
	if errors.Is(res.Err, session.ErrSessionNotFound) || errors.Is(res.Err, session.ErrSessionExpired) {
		level = slog.LevelDebug
	} else {
		e.metricInc(MetricSessionDestroyFailed)
	}
	errutil.LogError(ctx, e.logger, level, "session destroy failed",
		oops.With("user_id", userID).Wrap(res.Err))
	return res
}
