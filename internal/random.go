package internal

import (
	"crypto/rand"
	"encoding/base64"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

const sessionIDSize = 16

// NewSessionID returns 128 random bits rendered as unpadded base64url.
func NewSessionID() (string, error) {
	var raw [sessionIDSize]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", err
	}
	// base64url, no padding, compact
	return base64.RawURLEncoding.EncodeToString(raw[:]), nil
}

// NewResetToken returns a random (v4) UUID string.
func NewResetToken() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// NewUserID returns a lexically sortable identifier for a new user record.
func NewUserID() string {
	return ulid.Make().String()
}
