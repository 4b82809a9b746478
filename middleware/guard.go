package middleware

import (
	"context"
	"net/http"

	sessionauth "github.com/deniswachira/sessionauth"
)

// SessionResolver maps a session id to its user. *sessionauth.Engine
// satisfies it.
type SessionResolver interface {
	GetUserFromSessionID(ctx context.Context, sessionID string) (*sessionauth.User, error)
}

type userContextKey struct{}

// UserFromContext returns the user injected by Guard.
func UserFromContext(ctx context.Context) (*sessionauth.User, bool) {
	u, ok := ctx.Value(userContextKey{}).(*sessionauth.User)
	return u, ok && u != nil
}

// WithUser returns a copy of ctx carrying u.
func WithUser(ctx context.Context, u *sessionauth.User) context.Context {
	return context.WithValue(ctx, userContextKey{}, u)
}

// Guard rejects requests without a live session with 403 Forbidden. Store
// failures during lookup answer 500.
func Guard(resolver SessionResolver, cookies *Cookies) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if resolver == nil || cookies == nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			sid, ok := cookies.SessionID(r)
			if !ok {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			u, err := resolver.GetUserFromSessionID(r.Context(), sid)
			if err != nil {
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			if u == nil {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}
