package commands

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	authService "github.com/capsulen/capsulen/internal/auth/service"
)

const testKMSKeyURI = "base64key://smGbjm71Nxd1Ig5FS0wj9SlbzAIrnolCz9bQQ6uAhl4="

func TestRunCreateSigningKey(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_PlainSeed", func(t *testing.T) {
		var buf bytes.Buffer

		err := RunCreateSigningKey(ctx, &buf, "")
		require.NoError(t, err)

		output := buf.String()
		require.True(t, strings.HasPrefix(output, "SIGNING_KEY_SEED="))
		require.NotContains(t, output, "SIGNING_KEY_SEED_ENCRYPTED")

		encoded := strings.TrimSpace(strings.TrimPrefix(output, "SIGNING_KEY_SEED="))
		seed, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		require.Len(t, seed, ed25519.SeedSize)
	})

	t.Run("Success_WrappedSeed", func(t *testing.T) {
		var buf bytes.Buffer

		err := RunCreateSigningKey(ctx, &buf, testKMSKeyURI)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 3)

		plainSeed := strings.TrimPrefix(lines[0], "SIGNING_KEY_SEED=")
		wrapped := strings.TrimPrefix(lines[1], "SIGNING_KEY_SEED_ENCRYPTED=")
		require.Equal(t, "KMS_KEY_URI="+testKMSKeyURI, lines[2])

		// The wrapped seed must round-trip back to the same key.
		kmsService := authService.NewKMSService()
		key, err := kmsService.DecryptSigningKeySeed(ctx, testKMSKeyURI, wrapped)
		require.NoError(t, err)
		require.Equal(t, plainSeed, base64.StdEncoding.EncodeToString(key.Seed()))
	})

	t.Run("Error_BadKeyURI", func(t *testing.T) {
		var buf bytes.Buffer

		err := RunCreateSigningKey(ctx, &buf, "bogus://nope")
		require.Error(t, err)
	})
}
