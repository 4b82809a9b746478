// Package middleware carries the session cookie between HTTP requests and the
// engine.
//
// [Cookies] reads and writes the session cookie. When built with a
// [jwt.Manager] the cookie holds an HS256 token wrapping the session id, and a
// token that fails verification is treated as no cookie at all.
//
// [Guard] resolves the cookie to a user through
// [sessionauth.Engine.GetUserFromSessionID] and injects it into the request
// context. It never decides anything the engine has not.
package middleware
