package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
	argon2Prefix          = "$argon2id$"
)

// Argon2Config holds argon2id cost parameters. MaxPasswordBytes of zero
// disables the length cap.
type Argon2Config struct {
	Memory           uint32
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

// DefaultArgon2Config returns the parameters used when none are configured.
func DefaultArgon2Config() Argon2Config {
	return Argon2Config{
		Memory:      64 * 1024,
		Time:        3,
		Parallelism: 2,
		SaltLength:  16,
		KeyLength:   32,
	}
}

// Validate checks the parameters against the supported minimums.
func (c Argon2Config) Validate() error {
	switch {
	case c.Memory < minMemoryKB:
		return errors.New("password memory must be >= 8192 KB")
	case c.Time < minTimeCost:
		return errors.New("password time must be >= 1")
	case c.Parallelism < minParallelism:
		return errors.New("password parallelism must be >= 1")
	case c.SaltLength < minSaltLength:
		return errors.New("password salt length must be >= 16")
	case c.KeyLength < minKeyLength:
		return errors.New("password key length must be >= 16")
	case c.MaxPasswordBytes < 0:
		return errors.New("password max bytes must be >= 0")
	}
	return nil
}

// Argon2 is the argon2id [Algorithm].
type Argon2 struct {
	config Argon2Config
}

// NewArgon2 returns an Argon2 hasher after validating cfg.
func NewArgon2(cfg Argon2Config) (*Argon2, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Argon2{config: cfg}, nil
}

// Hash derives a PHC-encoded argon2id digest with a fresh random salt.
// Plaintext bytes are used exactly as given, without Unicode normalization.
func (a *Argon2) Hash(plaintext string) (string, error) {
	if err := a.checkLength(plaintext); err != nil {
		return "", err
	}

	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	key := argon2.IDKey([]byte(plaintext), salt, a.config.Time, a.config.Memory, a.config.Parallelism, a.config.KeyLength)

	return phc{
		memory:      a.config.Memory,
		time:        a.config.Time,
		parallelism: a.config.Parallelism,
		salt:        salt,
		key:         key,
	}.String(), nil
}

// Verify recomputes the digest with the parameters stored in it and compares
// in constant time.
func (a *Argon2) Verify(plaintext, digest string) (bool, error) {
	if a.config.MaxPasswordBytes > 0 && len(plaintext) > a.config.MaxPasswordBytes {
		return false, nil
	}

	p, err := parsePHC(digest)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(plaintext), p.salt, p.time, p.memory, p.parallelism, uint32(len(p.key)))
	return subtle.ConstantTimeCompare(computed, p.key) == 1, nil
}

// Recognizes implements [Algorithm].
func (a *Argon2) Recognizes(digest string) bool {
	return strings.HasPrefix(digest, argon2Prefix)
}

// NeedsUpgrade reports whether digest was produced with weaker parameters
// or a different key length than configured.
func (a *Argon2) NeedsUpgrade(digest string) (bool, error) {
	p, err := parsePHC(digest)
	if err != nil {
		return false, err
	}
	return a.config.Memory > p.memory ||
		a.config.Time > p.time ||
		a.config.Parallelism > p.parallelism ||
		int(a.config.KeyLength) != len(p.key), nil
}

func (a *Argon2) checkLength(plaintext string) error {
	if plaintext == "" {
		return ErrEmptyPassword
	}
	if a.config.MaxPasswordBytes > 0 && len(plaintext) > a.config.MaxPasswordBytes {
		return ErrPasswordTooLong
	}
	return nil
}

type phc struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	key         []byte
}

func (p phc) String() string {
	return fmt.Sprintf("%sv=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2Prefix,
		argon2.Version,
		p.memory, p.time, p.parallelism,
		base64.StdEncoding.EncodeToString(p.salt),
		base64.StdEncoding.EncodeToString(p.key),
	)
}

func invalidHash(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidHash, reason)
}

func parsePHC(digest string) (phc, error) {
	var p phc

	// "", "argon2id", "v=19", "m=..,t=..,p=..", salt, key
	parts := strings.Split(digest, "$")
	if len(parts) != 6 || parts[0] != "" || parts[1] != "argon2id" {
		return p, invalidHash("not an argon2id PHC string")
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return p, invalidHash("missing version")
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return p, invalidHash("unsupported version")
	}

	if err := p.parseParams(parts[3]); err != nil {
		return p, err
	}

	var err error
	if p.salt, err = base64.StdEncoding.DecodeString(parts[4]); err != nil || len(p.salt) < int(minSaltLength) {
		return p, invalidHash("bad salt")
	}
	if p.key, err = base64.StdEncoding.DecodeString(parts[5]); err != nil || len(p.key) == 0 {
		return p, invalidHash("bad key")
	}
	return p, nil
}

func (p *phc) parseParams(s string) error {
	seen := map[string]bool{}
	for _, pair := range strings.Split(s, ",") {
		name, raw, ok := strings.Cut(pair, "=")
		if !ok || seen[name] {
			return invalidHash("bad parameter list")
		}
		seen[name] = true

		switch name {
		case "m":
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || uint32(v) < minMemoryKB {
				return invalidHash("bad memory parameter")
			}
			p.memory = uint32(v)
		case "t":
			v, err := strconv.ParseUint(raw, 10, 32)
			if err != nil || uint32(v) < minTimeCost {
				return invalidHash("bad time parameter")
			}
			p.time = uint32(v)
		case "p":
			v, err := strconv.ParseUint(raw, 10, 8)
			if err != nil || uint8(v) < minParallelism {
				return invalidHash("bad parallelism parameter")
			}
			p.parallelism = uint8(v)
		default:
			return invalidHash("unknown parameter " + name)
		}
	}
	if len(seen) != 3 {
		return invalidHash("missing parameters")
	}
	return nil
}
