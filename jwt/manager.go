package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// MinKeyBytes is the shortest accepted HMAC key.
const MinKeyBytes = 32

var (
	// ErrInvalidToken is returned for tokens that fail signature, algorithm,
	// issuer or expiry checks.
	ErrInvalidToken = errors.New("invalid session token")
	// ErrMissingSessionID is returned for well-signed tokens without a sid claim.
	ErrMissingSessionID = errors.New("session token has no sid")
)

// Config holds signing parameters.
type Config struct {
	// Key signs new tokens.
	Key []byte
	// KeyID is written to the "kid" header when set.
	KeyID string
	// VerifyKeys holds additional keys by kid, for rotation. Tokens without a
	// kid are checked against Key.
	VerifyKeys map[string][]byte
	Issuer     string
	Leeway     time.Duration
	// Now overrides the clock. Nil means time.Now.
	Now func() time.Time
}

// Manager signs and verifies session tokens.
type Manager struct {
	config Config
}

// SessionClaims are the claims of a session token.
type SessionClaims struct {
	SID string `json:"sid"`
	jwt.RegisteredClaims
}

// NewManager validates cfg and returns a Manager.
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Key) < MinKeyBytes {
		return nil, fmt.Errorf("signing key must be at least %d bytes", MinKeyBytes)
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	cfg.KeyID = strings.TrimSpace(cfg.KeyID)
	for kid, key := range cfg.VerifyKeys {
		if strings.TrimSpace(kid) == "" {
			return nil, errors.New("verify key map contains empty kid")
		}
		if len(key) < MinKeyBytes {
			return nil, fmt.Errorf("verify key %q must be at least %d bytes", kid, MinKeyBytes)
		}
	}
	return &Manager{config: cfg}, nil
}

// Sign returns a token for sessionID valid until expiresAt.
func (j *Manager) Sign(sessionID string, expiresAt time.Time) (string, error) {
	if sessionID == "" {
		return "", ErrMissingSessionID
	}

	now := j.now()
	claims := SessionClaims{
		SID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.config.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	if j.config.KeyID != "" {
		token.Header["kid"] = j.config.KeyID
	}
	return token.SignedString(j.config.Key)
}

// Parse verifies tokenStr and returns the session id it carries.
func (j *Manager) Parse(tokenStr string) (string, error) {
	options := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(j.now),
	}
	if j.config.Leeway > 0 {
		options = append(options, jwt.WithLeeway(j.config.Leeway))
	}
	if j.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(j.config.Issuer))
	}

	claims := &SessionClaims{}
	token, err := jwt.NewParser(options...).ParseWithClaims(tokenStr, claims, j.verifyKey)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !token.Valid {
		return "", ErrInvalidToken
	}
	if claims.SID == "" {
		return "", ErrMissingSessionID
	}
	return claims.SID, nil
}

func (j *Manager) verifyKey(t *jwt.Token) (interface{}, error) {
	kid, _ := t.Header["kid"].(string)
	switch {
	case kid == "" || kid == j.config.KeyID:
		return j.config.Key, nil
	default:
		key, ok := j.config.VerifyKeys[kid]
		if !ok {
			return nil, errors.New("unknown kid")
		}
		return key, nil
	}
}

func (j *Manager) now() time.Time {
	if j.config.Now != nil {
		return j.config.Now()
	}
	return time.Now()
}
