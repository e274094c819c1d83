package service

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateNonce(t *testing.T) {
	svc := NewChallengeService()

	t.Run("Success_NumericAndBounded", func(t *testing.T) {
		for i := 0; i < 100; i++ {
			nonce, err := svc.GenerateNonce()
			require.NoError(t, err)

			value, err := strconv.ParseInt(nonce, 10, 64)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, value, int64(0))
			assert.Less(t, value, int64(nonceMax))
		}
	})
}

func TestGenerateChallenge(t *testing.T) {
	svc := NewChallengeService()

	t.Run("Success_LengthAndAlphabet", func(t *testing.T) {
		challenge, err := svc.GenerateChallenge()
		require.NoError(t, err)
		assert.Len(t, challenge, challengeLength)

		for _, c := range challenge {
			assert.True(t, strings.ContainsRune(challengeAlphabet, c))
		}
	})

	t.Run("Success_FreshRandomMaterial", func(t *testing.T) {
		first, err := svc.GenerateChallenge()
		require.NoError(t, err)

		second, err := svc.GenerateChallenge()
		require.NoError(t, err)

		assert.NotEqual(t, first, second)
	})
}
