// Package service provides challenge and nonce generation for the
// registration and login protocol.
package service

import (
	"crypto/rand"
	"math/big"
	"strconv"

	apperrors "github.com/capsulen/capsulen/internal/errors"
)

const (
	// challengeLength is the size of the random plaintext the client must
	// recover at login time.
	challengeLength = 32

	// nonceMax bounds the numeric registration nonce to nine decimal digits.
	nonceMax = 1_000_000_000

	challengeAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// ChallengeService generates the random material used by the registration
// state machine. Both values are transmitted in plaintext during registration
// step one; neither is a secret by itself.
type ChallengeService interface {
	// GenerateNonce returns a random numeric string correlating the two
	// registration steps.
	GenerateNonce() (string, error)

	// GenerateChallenge returns a random alphanumeric string the client
	// proves possession of the passphrase against.
	GenerateChallenge() (string, error)
}

type challengeService struct{}

// NewChallengeService creates a ChallengeService backed by crypto/rand.
func NewChallengeService() ChallengeService {
	return &challengeService{}
}

// GenerateNonce returns a random decimal string below one billion.
func (s *challengeService) GenerateNonce() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(nonceMax))
	if err != nil {
		return "", apperrors.Wrap(err, "failed to generate nonce")
	}
	return strconv.FormatInt(n.Int64(), 10), nil
}

// GenerateChallenge returns a 32-character alphanumeric string.
func (s *challengeService) GenerateChallenge() (string, error) {
	alphabetSize := big.NewInt(int64(len(challengeAlphabet)))
	challenge := make([]byte, challengeLength)

	for i := range challenge {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", apperrors.Wrap(err, "failed to generate challenge")
		}
		challenge[i] = challengeAlphabet[n.Int64()]
	}

	return string(challenge), nil
}
