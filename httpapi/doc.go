// Package httpapi is the form-based HTTP surface over the session engine:
// registration, login and logout, the profile lookup and the password-reset
// handshake. Handlers translate HTTP to engine calls and back; all decisions
// stay in the engine.
package httpapi
