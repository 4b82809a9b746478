package password

import "errors"

var (
	// ErrEmptyPassword is returned when hashing an empty plaintext.
	ErrEmptyPassword = errors.New("password is empty")
	// ErrPasswordTooLong is returned when the plaintext exceeds the configured limit.
	ErrPasswordTooLong = errors.New("password too long")
	// ErrInvalidHash is returned when a digest cannot be parsed.
	ErrInvalidHash = errors.New("invalid password hash")
	// ErrUnsupportedHash is returned when no configured algorithm recognizes a digest.
	ErrUnsupportedHash = errors.New("unsupported password hash")
)

// Hasher hashes plaintext passwords and verifies them against digests.
// Verify returns (false, nil) on a mismatch and an error only when the digest
// itself is unusable.
type Hasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, digest string) (bool, error)
}

// Algorithm is a Hasher that can tell its own digests apart and report
// whether they were produced with weaker parameters than configured.
type Algorithm interface {
	Hasher
	Recognizes(digest string) bool
	NeedsUpgrade(digest string) (bool, error)
}

// Composite hashes with Primary and verifies with whichever algorithm
// recognizes the digest.
type Composite struct {
	Primary Algorithm
	Legacy  []Algorithm
}

// NewComposite returns a Composite hashing with primary.
func NewComposite(primary Algorithm, legacy ...Algorithm) *Composite {
	return &Composite{Primary: primary, Legacy: legacy}
}

// Hash hashes with the primary algorithm.
func (c *Composite) Hash(plaintext string) (string, error) {
	return c.Primary.Hash(plaintext)
}

// Verify dispatches on the digest format.
func (c *Composite) Verify(plaintext, digest string) (bool, error) {
	alg := c.algorithmFor(digest)
	if alg == nil {
		return false, ErrUnsupportedHash
	}
	return alg.Verify(plaintext, digest)
}

// NeedsUpgrade reports true for digests from a legacy algorithm or from the
// primary with weaker parameters.
func (c *Composite) NeedsUpgrade(digest string) (bool, error) {
	if c.Primary.Recognizes(digest) {
		return c.Primary.NeedsUpgrade(digest)
	}
	if c.algorithmFor(digest) == nil {
		return false, ErrUnsupportedHash
	}
	return true, nil
}

func (c *Composite) algorithmFor(digest string) Algorithm {
	if c.Primary.Recognizes(digest) {
		return c.Primary
	}
	for _, alg := range c.Legacy {
		if alg.Recognizes(digest) {
			return alg
		}
	}
	return nil
}
