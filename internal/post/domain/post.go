// Package domain defines the post domain entities and types.
package domain

import (
	"time"

	"github.com/capsulen/capsulen/internal/errors"
)

// Post represents a client-encrypted journal entry. Content is an opaque
// ciphertext blob sealed under the author's passphrase; the server never
// decrypts or inspects it.
type Post struct {
	// ID is database-assigned and only ever exposed through the opaque id
	// codec.
	ID int64

	UserID    int64
	Content   string
	CreatedAt time.Time
}

// Domain-specific errors for post operations.
var (
	// ErrPostNotFound covers both a genuinely missing post and a post
	// owned by someone else; callers cannot distinguish the two.
	ErrPostNotFound = errors.WithKey(
		errors.Wrap(errors.ErrNotFound, "post not found"),
		"NOT_FOUND",
	)
)
