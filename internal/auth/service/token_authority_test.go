package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/capsulen/capsulen/internal/auth/domain"
)

func newTestAuthority(t *testing.T, ttl time.Duration) TokenAuthority {
	t.Helper()

	key, err := authDomain.GenerateSigningKey()
	require.NoError(t, err)

	return NewTokenAuthority(key, ttl)
}

func TestTokenAuthority_IssueAndVerify(t *testing.T) {
	authority := newTestAuthority(t, time.Hour)

	token, err := authority.Issue("alice")
	require.NoError(t, err)
	assert.NotEmpty(t, token)

	subject, err := authority.Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestTokenAuthority_Verify_Expired(t *testing.T) {
	authority := newTestAuthority(t, -time.Minute)

	token, err := authority.Issue("alice")
	require.NoError(t, err)

	_, err = authority.Verify(token)
	assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
}

func TestTokenAuthority_Verify_Malformed(t *testing.T) {
	authority := newTestAuthority(t, time.Hour)

	tests := []string{
		"",
		"not-a-token",
		"aaaa.bbbb.cccc",
	}

	for _, token := range tests {
		t.Run(token, func(t *testing.T) {
			_, err := authority.Verify(token)
			assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
		})
	}
}

func TestTokenAuthority_Verify_Tampered(t *testing.T) {
	authority := newTestAuthority(t, time.Hour)

	token, err := authority.Issue("alice")
	require.NoError(t, err)

	// Truncate the signature segment.
	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	tampered := parts[0] + "." + parts[1] + "." + parts[2][:len(parts[2])-4]

	_, err = authority.Verify(tampered)
	assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
}

func TestTokenAuthority_Verify_DifferentKey(t *testing.T) {
	issuer := newTestAuthority(t, time.Hour)
	verifier := newTestAuthority(t, time.Hour)

	token, err := issuer.Issue("alice")
	require.NoError(t, err)

	// A token signed under another process key must fail verification.
	_, err = verifier.Verify(token)
	assert.ErrorIs(t, err, authDomain.ErrInvalidToken)
}

func TestSigningKey_SeedRoundTrip(t *testing.T) {
	key, err := authDomain.GenerateSigningKey()
	require.NoError(t, err)

	restored, err := authDomain.NewSigningKeyFromSeed(key.Seed())
	require.NoError(t, err)

	// Tokens issued under the original key verify under the restored key.
	authority := NewTokenAuthority(key, time.Hour)
	token, err := authority.Issue("alice")
	require.NoError(t, err)

	subject, err := NewTokenAuthority(restored, time.Hour).Verify(token)
	assert.NoError(t, err)
	assert.Equal(t, "alice", subject)
}

func TestNewSigningKeyFromBase64Seed(t *testing.T) {
	t.Run("Error_NotBase64", func(t *testing.T) {
		_, err := authDomain.NewSigningKeyFromBase64Seed("!!bad!!")
		assert.ErrorIs(t, err, authDomain.ErrInvalidSigningKeySeed)
	})

	t.Run("Error_WrongLength", func(t *testing.T) {
		_, err := authDomain.NewSigningKeyFromBase64Seed("c2hvcnQ=")
		assert.ErrorIs(t, err, authDomain.ErrInvalidSigningKeySeed)
	})
}
