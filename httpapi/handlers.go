package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	sessionauth "github.com/deniswachira/sessionauth"
	"github.com/deniswachira/sessionauth/internal/errutil"
	"github.com/deniswachira/sessionauth/middleware"
)

// Welcome handles GET /.
func (a *API) Welcome(w http.ResponseWriter, _ *http.Request) {
	writeMessage(w, http.StatusOK, "Bienvenue")
}

// RegisterUser handles POST /users.
func (a *API) RegisterUser(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		writeMessage(w, http.StatusBadRequest, "email and password required")
		return
	}

	u, err := a.auth.RegisterUser(r.Context(), email, password)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, MessageResponse{Email: u.Email, Message: "user created"})
	case errors.Is(err, sessionauth.ErrDuplicateEmail):
		writeMessage(w, http.StatusBadRequest, "email already registered")
	case errors.Is(err, sessionauth.ErrPasswordPolicy):
		writeMessage(w, http.StatusBadRequest, sessionauth.ErrPasswordPolicy.Error())
	case errors.Is(err, sessionauth.ErrInvalidEmail):
		writeMessage(w, http.StatusBadRequest, sessionauth.ErrInvalidEmail.Error())
	default:
		a.internalError(w, r, "register user failed", err)
	}
}

// Login handles POST /sessions.
func (a *API) Login(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	password := r.PostFormValue("password")
	if !a.auth.ValidLogin(r.Context(), email, password) {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	sid, err := a.auth.CreateSession(r.Context(), email)
	if err != nil {
		a.internalError(w, r, "create session failed", err)
		return
	}
	if sid == "" {
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	if err := a.cookies.Set(w, sid, a.now().Add(a.sessionTTL)); err != nil {
		a.internalError(w, r, "session cookie failed", err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Email: email, Message: "logged in"})
}

// Logout handles DELETE /sessions.
func (a *API) Logout(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	if err := a.auth.DestroySession(r.Context(), u.ID); err != nil {
		a.internalError(w, r, "destroy session failed", err)
		return
	}
	a.cookies.Clear(w)
	http.Redirect(w, r, "/", http.StatusFound)
}

// Profile handles GET /profile.
func (a *API) Profile(w http.ResponseWriter, r *http.Request) {
	u, _ := middleware.UserFromContext(r.Context())
	writeJSON(w, http.StatusOK, ProfileResponse{Email: u.Email})
}

// ResetPasswordToken handles POST /reset_password.
func (a *API) ResetPasswordToken(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	token, err := a.auth.GetResetPasswordToken(r.Context(), email)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, ResetTokenResponse{Email: email, ResetToken: token})
	case errors.Is(err, sessionauth.ErrUnregisteredEmail), errors.Is(err, sessionauth.ErrPasswordResetDisabled):
		writeMessage(w, http.StatusForbidden, "forbidden")
	default:
		a.internalError(w, r, "reset token failed", err)
	}
}

// UpdatePassword handles PUT /reset_password.
func (a *API) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	email := r.PostFormValue("email")
	token := r.PostFormValue("reset_token")
	newPassword := r.PostFormValue("new_password")

	err := a.auth.UpdatePassword(r.Context(), token, newPassword)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, MessageResponse{Email: email, Message: "Password updated"})
	case errors.Is(err, sessionauth.ErrInvalidResetToken),
		errors.Is(err, sessionauth.ErrPasswordPolicy),
		errors.Is(err, sessionauth.ErrPasswordResetDisabled):
		writeMessage(w, http.StatusForbidden, "forbidden")
	default:
		a.internalError(w, r, "password update failed", err)
	}
}

func (a *API) internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	errutil.LogError(r.Context(), a.logger, slog.LevelError, msg, err)
	writeMessage(w, http.StatusInternalServerError, "internal error")
}
