package middleware

import (
	"net/http"
	"time"

	"github.com/deniswachira/sessionauth/jwt"
)

// DefaultCookieName is the cookie used when none is configured.
const DefaultCookieName = "session_id"

// Cookies encodes session ids into cookies and back.
type Cookies struct {
	name   string
	signer *jwt.Manager
	secure bool
}

// CookieOption configures Cookies.
type CookieOption func(*Cookies)

// WithSigner wraps session ids in tokens signed by m.
func WithSigner(m *jwt.Manager) CookieOption {
	return func(c *Cookies) {
		c.signer = m
	}
}

// WithSecure sets the Secure attribute on issued cookies.
func WithSecure(secure bool) CookieOption {
	return func(c *Cookies) {
		c.secure = secure
	}
}

// NewCookies returns a codec for the cookie called name.
func NewCookies(name string, opts ...CookieOption) *Cookies {
	if name == "" {
		name = DefaultCookieName
	}
	c := &Cookies{name: name}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the cookie name.
func (c *Cookies) Name() string {
	return c.name
}

// SessionID extracts the session id from r. ok is false when the cookie is
// missing, empty or fails verification.
func (c *Cookies) SessionID(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(c.name)
	if err != nil || cookie.Value == "" {
		return "", false
	}
	if c.signer == nil {
		return cookie.Value, true
	}
	sid, err := c.signer.Parse(cookie.Value)
	if err != nil {
		return "", false
	}
	return sid, true
}

// Set writes a cookie carrying sessionID. expiresAt bounds the signed token;
// the cookie itself is a browser-session cookie.
func (c *Cookies) Set(w http.ResponseWriter, sessionID string, expiresAt time.Time) error {
	value := sessionID
	if c.signer != nil {
		token, err := c.signer.Sign(sessionID, expiresAt)
		if err != nil {
			return err
		}
		value = token
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Clear expires the cookie on the client.
func (c *Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
