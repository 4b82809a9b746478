package sessionauth

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/deniswachira/sessionauth/internal/rate"
	"github.com/deniswachira/sessionauth/password"
	"github.com/deniswachira/sessionauth/session"
	"github.com/deniswachira/sessionauth/session/boltstore"
	"github.com/deniswachira/sessionauth/session/redisstore"
	"github.com/deniswachira/sessionauth/user"
)

// dummyPassword is hashed once at build time so logins for unknown emails
// spend the same time verifying as logins for known ones.
const dummyPassword = "sessionauth-timing-equalizer"

// Builder assembles an [Engine]. A Builder is single use.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userStore    user.Store
	sessionStore session.Store
	hasher       password.Hasher
	logger       *slog.Logger
	now          func() time.Time

	built bool
}

// New returns a Builder holding [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: defaultConfig(),
	}
}

// WithConfig replaces the whole configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis supplies the client used by the redis session backend and the
// login throttle.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the user record store. It is required.
func (b *Builder) WithUserStore(store user.Store) *Builder {
	b.userStore = store
	return b
}

// WithSessionStore overrides the session store selected by
// Config.Session.Backend.
func (b *Builder) WithSessionStore(store session.Store) *Builder {
	b.sessionStore = store
	return b
}

// WithHasher overrides the hasher derived from Config.Password.
func (b *Builder) WithHasher(h password.Hasher) *Builder {
	b.hasher = h
	return b
}

// WithLogger sets the structured logger. The default discards everything.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// WithClock overrides the clock used for session creation and expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

// WithMetricsEnabled toggles in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the session lookup latency histogram.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires the engine.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if b.userStore == nil {
		return nil, errors.New("user store required")
	}

	logger := b.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// -------- HASHER --------
	hasher := b.hasher
	if hasher == nil {
		h, err := newHasher(cfg.Password)
		if err != nil {
			return nil, err
		}
		hasher = h
	}
	dummyHash, err := hasher.Hash(dummyPassword)
	if err != nil {
		return nil, fmt.Errorf("hash timing digest: %w", err)
	}

	// -------- SESSION STORE --------
	store := b.sessionStore
	var closer io.Closer
	if store == nil {
		backend, c, err := b.sessionBackend(cfg.Session)
		if err != nil {
			return nil, err
		}
		store = session.NewSnapshotStore(backend)
		closer = c
	}

	policy := session.NewPolicy(cfg.Session.DurationSeconds)
	policy.Now = b.now

	engine := &Engine{
		config:    cfg,
		users:     b.userStore,
		sessions:  session.NewManager(store, policy),
		hasher:    hasher,
		dummyHash: dummyHash,
		metrics:   NewMetrics(cfg.Metrics),
		logger:    logger,
		closer:    closer,
	}

	if b.redis != nil && cfg.Login.MaxAttempts > 0 {
		engine.limiter = rate.New(b.redis, rate.Config{
			Prefix:      cfg.Session.RedisPrefix,
			MaxAttempts: cfg.Login.MaxAttempts,
			Cooldown:    cfg.Login.Cooldown,
		})
	}

	b.built = true

	return engine, nil
}

func (b *Builder) sessionBackend(cfg SessionConfig) (session.Backend, io.Closer, error) {
	switch cfg.Backend {
	case SessionBackendRedis:
		if b.redis == nil {
			return nil, nil, errors.New("redis session backend requires redis client")
		}
		return redisstore.New(b.redis, redisstore.Options{
			Prefix:    cfg.RedisPrefix,
			RecordTTL: cfg.RecordTTL,
		}), nil, nil
	case SessionBackendBolt:
		backend, err := boltstore.Open(cfg.BoltPath, nil)
		if err != nil {
			return nil, nil, err
		}
		return backend, backend, nil
	default:
		return session.NewMemoryBackend(), nil, nil
	}
}

// newHasher hashes with the configured algorithm and still verifies digests
// of the other one, so switching algorithms does not lock anyone out.
func newHasher(cfg PasswordConfig) (*password.Composite, error) {
	argon, err := password.NewArgon2(cfg.argon2())
	if err != nil {
		return nil, err
	}
	bc, err := password.NewBcrypt(cfg.BcryptCost)
	if err != nil {
		return nil, err
	}

	if cfg.Algorithm == AlgorithmBcrypt {
		return password.NewComposite(bc, argon), nil
	}
	return password.NewComposite(argon, bc), nil
}
