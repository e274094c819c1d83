// Package domain defines the invite domain entities and types.
package domain

import (
	"time"

	"github.com/capsulen/capsulen/internal/errors"
)

// InviteStatus tracks an invite code's lifecycle.
type InviteStatus string

// Valid invite statuses. The only transition is pending -> used, one-way,
// performed when a gated registration request succeeds.
const (
	InviteStatusPending InviteStatus = "pending"
	InviteStatusUsed    InviteStatus = "used"
)

// Invite represents a single-use registration invite code.
type Invite struct {
	ID        int64
	Code      string
	Status    InviteStatus
	CreatedAt time.Time
	UsedAt    *time.Time
}

// Domain-specific errors for invite operations.
var (
	// ErrInviteCodeInvalid indicates the code is missing, unknown, or
	// already used. The three causes are deliberately indistinguishable.
	ErrInviteCodeInvalid = errors.WithKey(
		errors.Wrap(errors.ErrInvalidInput, "invite code invalid"),
		"INVITE_CODE_INVALID",
	)
)
