// Package jwt wraps session identifiers in HS256-signed tokens so a session
// cookie cannot be forged or altered without the signing key.
//
// The token carries the session id in the "sid" claim and an "exp" no later
// than the session's own expiry. A valid token only proves the cookie was
// issued by this service; whether the session is still live is decided by the
// session engine.
package jwt
