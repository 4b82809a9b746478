package sessionauth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/deniswachira/sessionauth/password"
)

// Session backends accepted by [SessionConfig].Backend.
const (
	SessionBackendMemory = "memory"
	SessionBackendRedis  = "redis"
	SessionBackendBolt   = "bolt"
)

// Password algorithms accepted by [PasswordConfig].Algorithm.
const (
	AlgorithmArgon2id = "argon2id"
	AlgorithmBcrypt   = "bcrypt"
)

// Config is the complete runtime configuration. The engine reads Session,
// Password, PasswordReset, Login and Metrics; the remaining sections are
// consumed by cmd/sessionauthd when wiring stores and the HTTP surface.
type Config struct {
	Session       SessionConfig       `koanf:"session"`
	Password      PasswordConfig      `koanf:"password"`
	PasswordReset PasswordResetConfig `koanf:"password_reset"`
	Login         LoginConfig         `koanf:"login"`
	Metrics       MetricsConfig       `koanf:"metrics"`
	Redis         RedisConfig         `koanf:"redis"`
	Database      DatabaseConfig      `koanf:"database"`
	HTTP          HTTPConfig          `koanf:"http"`
	Log           LogConfig           `koanf:"log"`
}

// SessionConfig controls session lifetime and storage.
type SessionConfig struct {
	// DurationSeconds is the validity window measured from creation.
	DurationSeconds int    `koanf:"duration"`
	Backend         string `koanf:"backend"`
	RedisPrefix     string `koanf:"redis_prefix"`
	// RecordTTL lets the Redis backend evict records this long after they
	// were written. Zero keeps them until destroyed.
	RecordTTL time.Duration `koanf:"record_ttl"`
	BoltPath  string        `koanf:"bolt_path"`
}

// Duration returns DurationSeconds as a time.Duration.
func (c SessionConfig) Duration() time.Duration {
	return time.Duration(c.DurationSeconds) * time.Second
}

// PasswordConfig selects the hashing algorithm and the password policy.
type PasswordConfig struct {
	Algorithm        string `koanf:"algorithm"`
	Memory           uint32 `koanf:"memory"`
	Time             uint32 `koanf:"time"`
	Parallelism      uint8  `koanf:"parallelism"`
	SaltLength       uint32 `koanf:"salt_length"`
	KeyLength        uint32 `koanf:"key_length"`
	MaxPasswordBytes int    `koanf:"max_bytes"`
	BcryptCost       int    `koanf:"bcrypt_cost"`
	MinLength        int    `koanf:"min_length"`
	UpgradeOnLogin   bool   `koanf:"upgrade_on_login"`
}

func (c PasswordConfig) argon2() password.Argon2Config {
	return password.Argon2Config{
		Memory:           c.Memory,
		Time:             c.Time,
		Parallelism:      c.Parallelism,
		SaltLength:       c.SaltLength,
		KeyLength:        c.KeyLength,
		MaxPasswordBytes: c.MaxPasswordBytes,
	}
}

// PasswordResetConfig toggles the reset-token handshake.
type PasswordResetConfig struct {
	Enabled bool `koanf:"enabled"`
}

// LoginConfig throttles failed logins per email. It only takes effect when a
// Redis client is supplied; MaxAttempts of zero disables it.
type LoginConfig struct {
	MaxAttempts int           `koanf:"max_attempts"`
	Cooldown    time.Duration `koanf:"cooldown"`
}

// MetricsConfig defines a public type used by sessionauth APIs.
type MetricsConfig struct {
	Enabled                 bool `koanf:"enabled"`
	EnableLatencyHistograms bool `koanf:"latency_histograms"`
}

// RedisConfig locates the Redis server used by the redis session backend and
// the login throttle.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
}

// DatabaseConfig locates the PostgreSQL user store. An empty URL selects the
// in-memory store.
type DatabaseConfig struct {
	URL string `koanf:"url"`
}

// HTTPConfig configures the HTTP surface.
type HTTPConfig struct {
	Addr             string        `koanf:"addr"`
	CookieName       string        `koanf:"cookie_name"`
	CookieSigningKey string        `koanf:"cookie_signing_key"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

func defaultConfig() Config {
	argon := password.DefaultArgon2Config()
	return Config{
		Session: SessionConfig{
			DurationSeconds: 3600,
			Backend:         SessionBackendMemory,
			RedisPrefix:     "sa",
			BoltPath:        "sessions.db",
		},
		Password: PasswordConfig{
			Algorithm:      AlgorithmArgon2id,
			Memory:         argon.Memory,
			Time:           argon.Time,
			Parallelism:    argon.Parallelism,
			SaltLength:     argon.SaltLength,
			KeyLength:      argon.KeyLength,
			BcryptCost:     bcrypt.DefaultCost,
			MinLength:      1,
			UpgradeOnLogin: true,
		},
		PasswordReset: PasswordResetConfig{
			Enabled: true,
		},
		Login: LoginConfig{
			MaxAttempts: 5,
			Cooldown:    15 * time.Minute,
		},
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		HTTP: HTTPConfig{
			Addr:            ":5000",
			CookieName:      "session_id",
			ShutdownTimeout: 10 * time.Second,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
	}
}

func cloneConfig(cfg Config) Config {
	return cfg
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	// Session
	if c.Session.DurationSeconds < 0 {
		return errors.New("Session Duration must be >= 0")
	}
	switch c.Session.Backend {
	case SessionBackendMemory, SessionBackendRedis:
	case SessionBackendBolt:
		if strings.TrimSpace(c.Session.BoltPath) == "" {
			return errors.New("Session BoltPath is required for the bolt backend")
		}
	default:
		return fmt.Errorf("Session Backend %q is not supported", c.Session.Backend)
	}
	if c.Session.RecordTTL < 0 {
		return errors.New("Session RecordTTL must be >= 0")
	}
	if c.Session.RecordTTL > 0 && c.Session.RecordTTL < c.Session.Duration() {
		return errors.New("Session RecordTTL must not be shorter than the session duration")
	}

	// Password
	switch c.Password.Algorithm {
	case AlgorithmArgon2id, AlgorithmBcrypt:
	default:
		return fmt.Errorf("Password Algorithm %q is not supported", c.Password.Algorithm)
	}
	if err := c.Password.argon2().Validate(); err != nil {
		return fmt.Errorf("Password: %w", err)
	}
	if c.Password.BcryptCost < bcrypt.MinCost || c.Password.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("Password BcryptCost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if c.Password.MinLength < 1 {
		return errors.New("Password MinLength must be >= 1")
	}
	if c.Password.MaxPasswordBytes > 0 && c.Password.MaxPasswordBytes < c.Password.MinLength {
		return errors.New("Password MaxPasswordBytes must be >= MinLength")
	}

	// Login throttle
	if c.Login.MaxAttempts < 0 {
		return errors.New("Login MaxAttempts must be >= 0")
	}
	if c.Login.MaxAttempts > 0 && c.Login.Cooldown <= 0 {
		return errors.New("Login Cooldown must be > 0 when MaxAttempts is set")
	}

	// HTTP
	if strings.TrimSpace(c.HTTP.CookieName) == "" {
		return errors.New("HTTP CookieName must not be empty")
	}
	if c.HTTP.CookieSigningKey != "" && len(c.HTTP.CookieSigningKey) < 32 {
		return errors.New("HTTP CookieSigningKey must be at least 32 bytes")
	}

	// Log
	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("Log Format %q is not supported", c.Log.Format)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("Log Level %q is not supported", c.Log.Level)
	}

	return nil
}
