package commands

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"

	authDomain "github.com/capsulen/capsulen/internal/auth/domain"
	authService "github.com/capsulen/capsulen/internal/auth/service"
)

// RunCreateSigningKey generates a fresh Ed25519 token signing key and prints
// its base64 seed for the SIGNING_KEY_SEED environment variable. When a KMS
// key URI is given, the seed is additionally printed wrapped by that keeper
// for use as SIGNING_KEY_SEED_ENCRYPTED.
func RunCreateSigningKey(ctx context.Context, writer io.Writer, kmsKeyURI string) error {
	key, err := authDomain.GenerateSigningKey()
	if err != nil {
		return fmt.Errorf("failed to generate signing key: %w", err)
	}

	seed := base64.StdEncoding.EncodeToString(key.Seed())
	fmt.Fprintf(writer, "SIGNING_KEY_SEED=%s\n", seed)

	if kmsKeyURI == "" {
		return nil
	}

	kmsService := authService.NewKMSService()
	wrapped, err := kmsService.EncryptSigningKeySeed(ctx, kmsKeyURI, key)
	if err != nil {
		return fmt.Errorf("failed to wrap signing key seed: %w", err)
	}

	fmt.Fprintf(writer, "SIGNING_KEY_SEED_ENCRYPTED=%s\n", wrapped)
	fmt.Fprintf(writer, "KMS_KEY_URI=%s\n", kmsKeyURI)
	return nil
}
