package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/oops"

	"github.com/deniswachira/sessionauth/internal"
)

// Manager is the session engine. It is safe for concurrent use when its
// [Store] is.
type Manager struct {
	store  Store
	policy Policy
	newID  func() (string, error)
}

// Option configures a [Manager].
type Option func(*Manager)

// WithIDGenerator replaces the default 128-bit random identifier generator.
func WithIDGenerator(fn func() (string, error)) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newID = fn
		}
	}
}

// NewManager returns a Manager over store using policy for expiration.
func NewManager(store Store, policy Policy, opts ...Option) *Manager {
	m := &Manager{
		store:  store,
		policy: policy,
		newID:  internal.NewSessionID,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Policy returns the expiration policy in use.
func (m *Manager) Policy() Policy {
	return m.policy
}

// Create issues a session for userID and persists it. An empty userID
// returns "" without touching the store.
func (m *Manager) Create(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", nil
	}

	id, err := m.newID()
	if err != nil {
		return "", oops.Code("SESSION_ID_GENERATION_FAILED").With("user_id", userID).Wrap(err)
	}

	rec := Session{ID: id, UserID: userID, CreatedAt: m.policy.now()}
	if err := m.store.Insert(ctx, rec); err != nil {
		return "", err
	}
	if err := m.store.Persist(ctx); err != nil {
		// The caller never sees id, so it must not stay resolvable.
		_ = m.store.Remove(ctx, rec)
		return "", err
	}
	return id, nil
}

// UserIDForSessionID returns the owner of a valid session. It returns "" with
// a nil error when sessionID is empty, unknown or expired. Expired records are
// left in place.
func (m *Manager) UserIDForSessionID(ctx context.Context, sessionID string) (string, error) {
	rec, err := m.Resolve(ctx, sessionID)
	switch {
	case err == nil:
		return rec.UserID, nil
	case errors.Is(err, ErrNoSessionID), errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrSessionExpired):
		return "", nil
	default:
		return "", err
	}
}

// SessionIDForUser returns the newest valid session of userID, or "".
func (m *Manager) SessionIDForUser(ctx context.Context, userID string) (string, error) {
	if userID == "" {
		return "", nil
	}
	if err := m.store.Reload(ctx); err != nil {
		return "", err
	}

	found, err := m.store.Search(ctx, Filter{UserID: userID})
	if err != nil {
		return "", err
	}
	for i := len(found) - 1; i >= 0; i-- {
		if !m.policy.Expired(found[i]) {
			return found[i].ID, nil
		}
	}
	return "", nil
}

// DestroyResult reports the outcome of [Manager.Destroy]. Err carries the
// reason when Destroyed is false.
type DestroyResult struct {
	SessionID string
	Destroyed bool
	Err       error
}

// OK reports whether the session was removed and the removal persisted.
func (r DestroyResult) OK() bool {
	return r.Destroyed
}

// Destroy removes a valid session and persists the removal. It never returns
// an error or panics on behalf of the store: unknown, expired and failed
// removals come back as a DestroyResult with Destroyed false, and a removal
// that could not be persisted is undone.
func (m *Manager) Destroy(ctx context.Context, sessionID string) (result DestroyResult) {
	result.SessionID = sessionID

	defer func() {
		if r := recover(); r != nil {
			result.Destroyed = false
			result.Err = oops.Code("SESSION_DESTROY_PANIC").
				Wrap(fmt.Errorf("%w: %v", ErrStoreUnavailable, r))
		}
	}()

	rec, err := m.Resolve(ctx, sessionID)
	if err != nil {
		result.Err = err
		return result
	}

	if err := m.store.Remove(ctx, rec); err != nil {
		result.Err = err
		return result
	}
	if err := m.store.Persist(ctx); err != nil {
		// Put the record back so this process agrees with the backend.
		_ = m.store.Insert(ctx, rec)
		result.Err = err
		return result
	}

	result.Destroyed = true
	return result
}

// Resolve reloads the store and returns the valid record for sessionID. It
// fails with ErrNoSessionID, ErrSessionNotFound or ErrSessionExpired when
// there is nothing usable.
func (m *Manager) Resolve(ctx context.Context, sessionID string) (Session, error) {
	if sessionID == "" {
		return Session{}, ErrNoSessionID
	}
	if err := m.store.Reload(ctx); err != nil {
		return Session{}, err
	}

	found, err := m.store.Search(ctx, Filter{SessionID: sessionID})
	if err != nil {
		return Session{}, err
	}
	if len(found) == 0 {
		return Session{}, oops.Code("SESSION_NOT_FOUND").Wrap(ErrSessionNotFound)
	}

	rec := found[0]
	if m.policy.Expired(rec) {
		return Session{}, oops.Code("SESSION_EXPIRED").
			With("user_id", rec.UserID).
			With("expires_at", m.policy.ExpiresAt(rec)).
			Wrap(ErrSessionExpired)
	}
	return rec, nil
}
