// Package domain defines the core user domain entities and types.
package domain

import (
	"time"

	"github.com/capsulen/capsulen/internal/errors"
)

// UserStatus tracks a user's progress through the registration state machine.
type UserStatus string

// Valid user statuses. The only transition is requested -> active, one-way,
// performed when registration step two succeeds.
const (
	UserStatusRequested UserStatus = "requested"
	UserStatusActive    UserStatus = "active"
)

// User represents an account in the challenge-response scheme. The server
// never holds the user's passphrase or any key derived from it; possession is
// proven by the client's ability to decrypt ChallengeEncrypted.
type User struct {
	// ID is database-assigned and never leaves the trust boundary directly.
	ID int64

	// Username is unique case-insensitively and immutable after the
	// registration request.
	Username string

	// Nonce correlates a registration request to its completion. It is
	// single-use: once the account is active the row no longer matches
	// status=requested, so replay with the same nonce fails.
	Nonce string

	// Challenge is the server-generated random plaintext the client must
	// recover at login time. It is transmitted in plaintext exactly once,
	// during registration step one.
	Challenge string

	// ChallengeEncrypted is the client-produced envelope over Challenge.
	// Empty until registration completes, immutable afterward. Non-empty
	// if and only if Status is active.
	ChallengeEncrypted string

	Status    UserStatus
	CreatedAt time.Time
}

// Domain-specific errors for user operations.
var (
	// ErrUsernameTaken indicates the username is already requested or active.
	ErrUsernameTaken = errors.WithKey(
		errors.Wrap(errors.ErrConflict, "username already in use"),
		"USERNAME_IN_USE",
	)

	// ErrRegistrationNotFound indicates no row matched
	// (username, nonce, status=requested). It also covers replay of an
	// already-completed registration.
	ErrRegistrationNotFound = errors.WithKey(
		errors.Wrap(errors.ErrNotFound, "registration request not found"),
		"REGISTER_ERROR",
	)

	// ErrCredentialsIncorrect covers both "no such user" and "challenge
	// mismatch" so responses cannot be used to enumerate usernames.
	ErrCredentialsIncorrect = errors.WithKey(
		errors.Wrap(errors.ErrInvalidInput, "credentials incorrect"),
		"CREDENTIALS_INCORRECT",
	)

	// ErrUserNotFound indicates the requested user does not exist. Internal
	// use only; login flows surface ErrCredentialsIncorrect instead.
	ErrUserNotFound = errors.Wrap(errors.ErrNotFound, "user not found")
)
