// Package usecase implements invite management business logic.
package usecase

import (
	"context"
	"crypto/rand"
	"math/big"

	apperrors "github.com/capsulen/capsulen/internal/errors"
	"github.com/capsulen/capsulen/internal/invite/domain"
)

const (
	codeLength   = 8
	codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// UseCase defines the interface for invite business logic operations
type UseCase interface {
	// CreateInvite generates a fresh single-use code and persists it as
	// pending.
	CreateInvite(ctx context.Context) (*domain.Invite, error)
}

// InviteRepository interface defines invite repository operations
type InviteRepository interface {
	Create(ctx context.Context, invite *domain.Invite) error
}

// InviteUseCase handles invite-related business logic
type InviteUseCase struct {
	inviteRepo InviteRepository
}

// NewInviteUseCase creates a new InviteUseCase
func NewInviteUseCase(inviteRepo InviteRepository) *InviteUseCase {
	return &InviteUseCase{inviteRepo: inviteRepo}
}

// CreateInvite generates an 8-character uppercase alphanumeric code and
// stores it in the pending state.
func (uc *InviteUseCase) CreateInvite(ctx context.Context) (*domain.Invite, error) {
	code, err := generateCode()
	if err != nil {
		return nil, err
	}

	invite := &domain.Invite{Code: code}
	if err := uc.inviteRepo.Create(ctx, invite); err != nil {
		return nil, err
	}

	return invite, nil
}

func generateCode() (string, error) {
	alphabetSize := big.NewInt(int64(len(codeAlphabet)))
	code := make([]byte, codeLength)

	for i := range code {
		n, err := rand.Int(rand.Reader, alphabetSize)
		if err != nil {
			return "", apperrors.Wrap(err, "failed to generate invite code")
		}
		code[i] = codeAlphabet[n.Int64()]
	}

	return string(code), nil
}
