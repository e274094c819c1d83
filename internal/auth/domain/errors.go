package domain

import (
	"github.com/capsulen/capsulen/internal/errors"
)

// Session token errors.
var (
	// ErrInvalidToken indicates a session token failed verification: forged,
	// expired, or malformed. Verification fails closed; the cause is not
	// disclosed to the caller.
	ErrInvalidToken = errors.WithKey(
		errors.Wrap(errors.ErrUnauthorized, "invalid session token"),
		"INVALID_TOKEN",
	)
)
