package service

import (
	"context"
	"encoding/base64"

	"gocloud.dev/secrets"

	authDomain "github.com/capsulen/capsulen/internal/auth/domain"
	apperrors "github.com/capsulen/capsulen/internal/errors"

	// Register KMS provider drivers for signing-key unwrapping.
	_ "gocloud.dev/secrets/awskms"
	_ "gocloud.dev/secrets/localsecrets"
)

// KMSService unwraps KMS-protected secrets using gocloud.dev/secrets.
type KMSService interface {
	// DecryptSigningKeySeed unwraps a base64-encoded, KMS-wrapped Ed25519
	// seed using the keeper identified by keyURI.
	DecryptSigningKeySeed(ctx context.Context, keyURI, encryptedSeed string) (*authDomain.SigningKey, error)

	// EncryptSigningKeySeed wraps the key's seed with the keeper identified
	// by keyURI and returns it base64-encoded, ready for configuration.
	EncryptSigningKeySeed(ctx context.Context, keyURI string, key *authDomain.SigningKey) (string, error)
}

// kmsService implements KMSService using gocloud.dev/secrets.
type kmsService struct{}

// NewKMSService creates a new KMS service instance.
func NewKMSService() KMSService {
	return &kmsService{}
}

// DecryptSigningKeySeed opens a secrets.Keeper for keyURI, decrypts the
// wrapped seed, and builds the signing key pair from it.
// Supported URIs: awskms://, base64key:// (local development).
func (k *kmsService) DecryptSigningKeySeed(
	ctx context.Context,
	keyURI, encryptedSeed string,
) (*authDomain.SigningKey, error) {
	wrapped, err := base64.StdEncoding.DecodeString(encryptedSeed)
	if err != nil {
		return nil, authDomain.ErrInvalidSigningKeySeed
	}

	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to open KMS keeper")
	}
	defer keeper.Close()

	seed, err := keeper.Decrypt(ctx, wrapped)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to decrypt signing key seed")
	}

	return authDomain.NewSigningKeyFromSeed(seed)
}

// EncryptSigningKeySeed wraps the seed with the keeper identified by keyURI.
func (k *kmsService) EncryptSigningKeySeed(
	ctx context.Context,
	keyURI string,
	key *authDomain.SigningKey,
) (string, error) {
	keeper, err := secrets.OpenKeeper(ctx, keyURI)
	if err != nil {
		return "", apperrors.Wrap(err, "failed to open KMS keeper")
	}
	defer keeper.Close()

	wrapped, err := keeper.Encrypt(ctx, key.Seed())
	if err != nil {
		return "", apperrors.Wrap(err, "failed to encrypt signing key seed")
	}

	return base64.StdEncoding.EncodeToString(wrapped), nil
}
