package httpapi

import (
	"encoding/json"
	"net/http"
)

// MessageResponse is the body of most replies.
type MessageResponse struct {
	Email   string `json:"email,omitempty"`
	Message string `json:"message"`
}

// ProfileResponse is the body of GET /profile.
type ProfileResponse struct {
	Email string `json:"email"`
}

// ResetTokenResponse is the body of POST /reset_password.
type ResetTokenResponse struct {
	Email      string `json:"email"`
	ResetToken string `json:"reset_token"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageResponse{Message: msg})
}
