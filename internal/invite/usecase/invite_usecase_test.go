package usecase

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "github.com/capsulen/capsulen/internal/errors"
	"github.com/capsulen/capsulen/internal/invite/domain"
)

type mockInviteRepository struct {
	mock.Mock
}

func (m *mockInviteRepository) Create(ctx context.Context, invite *domain.Invite) error {
	args := m.Called(ctx, invite)
	return args.Error(0)
}

func TestCreateInvite(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo := &mockInviteRepository{}
		repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Invite")).
			Run(func(args mock.Arguments) {
				invite := args.Get(1).(*domain.Invite)
				invite.ID = 1
				invite.Status = domain.InviteStatusPending
			}).
			Return(nil)

		uc := NewInviteUseCase(repo)
		invite, err := uc.CreateInvite(context.Background())
		require.NoError(t, err)

		assert.Len(t, invite.Code, codeLength)
		for _, c := range invite.Code {
			assert.True(t, strings.ContainsRune(codeAlphabet, c))
		}
		assert.Equal(t, domain.InviteStatusPending, invite.Status)
		repo.AssertExpectations(t)
	})

	t.Run("Error_RepositoryFailure", func(t *testing.T) {
		repo := &mockInviteRepository{}
		repo.On("Create", mock.Anything, mock.Anything).
			Return(apperrors.New("insert failed"))

		uc := NewInviteUseCase(repo)
		invite, err := uc.CreateInvite(context.Background())
		assert.Error(t, err)
		assert.Nil(t, invite)
	})
}
