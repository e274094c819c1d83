// Package crypto implements the passphrase-bound envelope encryption used by
// the challenge-response protocol. All operations in this package run on the
// client side of the trust boundary: the server only ever handles the opaque
// envelopes this package produces.
package crypto

import (
	"crypto/sha256"

	"golang.org/x/crypto/pbkdf2"
)

// DefaultIterations is the PBKDF2 work factor used when none is configured.
//
// The value is deliberately high so that an attacker holding a stolen envelope
// pays this cost per passphrase guess. The envelope format stores the salt but
// not the iteration count, so KDF_ITERATIONS must stay stable for the life of
// a deployment: envelopes sealed under a different count will not open.
const DefaultIterations = 250000

// KeySize is the derived key length in bytes (AES-256).
const KeySize = 32

// SaltSize is the per-envelope salt length in bytes.
const SaltSize = 16

// KeyDeriver derives symmetric keys from passphrases using PBKDF2-HMAC-SHA256.
//
// Derivation is deterministic: the same (passphrase, salt) pair always yields
// the same key. Derived keys are scoped to a single AEAD operation and must
// not be reused for signing.
type KeyDeriver struct {
	iterations int
}

// NewKeyDeriver creates a KeyDeriver with the given iteration count.
// Values below 1 fall back to DefaultIterations.
func NewKeyDeriver(iterations int) *KeyDeriver {
	if iterations < 1 {
		iterations = DefaultIterations
	}
	return &KeyDeriver{iterations: iterations}
}

// Derive returns a 32-byte key for the given passphrase and salt.
func (k *KeyDeriver) Derive(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, k.iterations, KeySize, sha256.New)
}

// Iterations returns the configured PBKDF2 work factor.
func (k *KeyDeriver) Iterations() int {
	return k.iterations
}
