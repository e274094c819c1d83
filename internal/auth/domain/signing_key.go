// Package domain defines the session-token domain: the process-wide signing
// key and the errors token verification can produce.
package domain

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"

	apperrors "github.com/capsulen/capsulen/internal/errors"
)

// SigningKey is the process-wide Ed25519 key pair used to sign and verify
// session tokens. It is constructed once at process start and never rotated
// during a run; issuance and verification share it read-only.
//
// Open question carried from the protocol design: there is no rotation story.
// Tokens issued under a previous key become unverifiable after a key change
// and remain so until their natural expiry would have passed.
type SigningKey struct {
	Public  ed25519.PublicKey
	Private ed25519.PrivateKey
}

// SeedSize is the required length of a raw Ed25519 seed in bytes.
const SeedSize = ed25519.SeedSize

// Signing key configuration errors.
var (
	// ErrInvalidSigningKeySeed indicates the configured seed is not valid
	// base64 or has the wrong length.
	ErrInvalidSigningKeySeed = apperrors.Wrap(apperrors.ErrInvalidInput, "invalid signing key seed")
)

// NewSigningKeyFromSeed builds a key pair from a raw 32-byte Ed25519 seed.
func NewSigningKeyFromSeed(seed []byte) (*SigningKey, error) {
	if len(seed) != SeedSize {
		return nil, ErrInvalidSigningKeySeed
	}

	private := ed25519.NewKeyFromSeed(seed)

	return &SigningKey{
		Public:  private.Public().(ed25519.PublicKey),
		Private: private,
	}, nil
}

// NewSigningKeyFromBase64Seed builds a key pair from a base64-encoded seed,
// the format used by the SIGNING_KEY_SEED environment variable.
func NewSigningKeyFromBase64Seed(encoded string) (*SigningKey, error) {
	seed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidSigningKeySeed
	}
	return NewSigningKeyFromSeed(seed)
}

// GenerateSigningKey creates a fresh random key pair. Tokens signed with a
// generated key do not survive a process restart.
func GenerateSigningKey() (*SigningKey, error) {
	public, private, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to generate signing key")
	}

	return &SigningKey{Public: public, Private: private}, nil
}

// Seed returns the raw seed of the private key, suitable for persisting via
// SIGNING_KEY_SEED after base64 encoding.
func (k *SigningKey) Seed() []byte {
	return k.Private.Seed()
}
