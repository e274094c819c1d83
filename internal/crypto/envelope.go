package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"

	apperrors "github.com/capsulen/capsulen/internal/errors"
)

// NonceSize is the AES-GCM nonce length in bytes.
const NonceSize = 12

// Envelope errors. Open deliberately reports a single error for every failure
// mode (wrong passphrase, truncated data, flipped bytes): a holder of the
// ciphertext must not be able to distinguish "wrong key" from "corrupted data".
var (
	// ErrEncrypt indicates a cryptographic primitive failed during seal.
	ErrEncrypt = apperrors.New("encryption failed")

	// ErrDecrypt indicates the envelope is malformed or authentication failed.
	ErrDecrypt = apperrors.New("decryption failed")
)

// Envelope seals and opens passphrase-bound authenticated ciphertexts.
//
// Each seal generates a fresh 16-byte salt and 12-byte nonce, derives a
// per-call AES-256 key via PBKDF2, and encrypts with AES-256-GCM. The result
// is base64(salt ‖ nonce ‖ ciphertext+tag): a self-contained, transport-safe
// string that can only be opened by a holder of the original passphrase.
type Envelope struct {
	deriver *KeyDeriver
}

// NewEnvelope creates an Envelope using the given key deriver.
func NewEnvelope(deriver *KeyDeriver) *Envelope {
	return &Envelope{deriver: deriver}
}

// Seal encrypts plaintext under a key derived from the passphrase.
//
// Confidentiality and integrity are both bound to the passphrase: tampering
// with any byte of the result makes Open fail. Seal never reuses random
// material; two seals of the same plaintext yield different envelopes.
func (e *Envelope) Seal(plaintext []byte, passphrase string) (string, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return "", apperrors.Wrap(ErrEncrypt, "failed to generate salt")
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", apperrors.Wrap(ErrEncrypt, "failed to generate nonce")
	}

	aead, err := e.newAEAD(passphrase, salt)
	if err != nil {
		return "", apperrors.Wrap(ErrEncrypt, err.Error())
	}

	ciphertext := aead.Seal(nil, nonce, plaintext, nil)

	buf := make([]byte, 0, len(salt)+len(nonce)+len(ciphertext))
	buf = append(buf, salt...)
	buf = append(buf, nonce...)
	buf = append(buf, ciphertext...)

	return base64.StdEncoding.EncodeToString(buf), nil
}

// Open decrypts an envelope produced by Seal with the same passphrase.
//
// Returns ErrDecrypt if the envelope is malformed, was tampered with, or the
// passphrase is wrong. It never returns partial or unauthenticated plaintext.
func (e *Envelope) Open(envelope string, passphrase string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(envelope)
	if err != nil {
		return nil, ErrDecrypt
	}

	// salt ‖ nonce ‖ at least one tag's worth of ciphertext
	if len(raw) < SaltSize+NonceSize+16 {
		return nil, ErrDecrypt
	}

	salt := raw[:SaltSize]
	nonce := raw[SaltSize : SaltSize+NonceSize]
	ciphertext := raw[SaltSize+NonceSize:]

	aead, err := e.newAEAD(passphrase, salt)
	if err != nil {
		return nil, ErrDecrypt
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}

	return plaintext, nil
}

// newAEAD derives the per-call key and builds the AES-256-GCM cipher.
func (e *Envelope) newAEAD(passphrase string, salt []byte) (cipher.AEAD, error) {
	key := e.deriver.Derive(passphrase, salt)

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}

	return cipher.NewGCM(block)
}
