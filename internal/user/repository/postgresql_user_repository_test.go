package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/capsulen/capsulen/internal/errors"
	"github.com/capsulen/capsulen/internal/user/domain"
)

func setupMockDB(t *testing.T) (*PostgreSQLUserRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewPostgreSQLUserRepository(db), mock
}

func TestPostgreSQLUserRepository_ExistsUsername(t *testing.T) {
	t.Run("Success_Exists", func(t *testing.T) {
		repo, mock := setupMockDB(t)

		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("alice").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		exists, err := repo.ExistsUsername(context.Background(), "alice")
		assert.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("Success_NotExists", func(t *testing.T) {
		repo, mock := setupMockDB(t)

		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("nobody").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		exists, err := repo.ExistsUsername(context.Background(), "nobody")
		assert.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestPostgreSQLUserRepository_CreateRequest(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock := setupMockDB(t)

		createdAt := time.Now()
		mock.ExpectQuery("INSERT INTO users").
			WithArgs("alice", "123456789", "XYZchallenge", string(domain.UserStatusRequested)).
			WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(int64(7), createdAt))

		user := &domain.User{Username: "alice", Nonce: "123456789", Challenge: "XYZchallenge"}
		err := repo.CreateRequest(context.Background(), user)
		assert.NoError(t, err)
		assert.Equal(t, int64(7), user.ID)
		assert.Equal(t, domain.UserStatusRequested, user.Status)
	})

	t.Run("Error_UniqueViolationMapsToUsernameTaken", func(t *testing.T) {
		repo, mock := setupMockDB(t)

		mock.ExpectQuery("INSERT INTO users").
			WithArgs("alice", "123456789", "XYZchallenge", string(domain.UserStatusRequested)).
			WillReturnError(apperrors.New(`pq: duplicate key value violates unique constraint "users_username_lower_idx"`))

		user := &domain.User{Username: "alice", Nonce: "123456789", Challenge: "XYZchallenge"}
		err := repo.CreateRequest(context.Background(), user)
		assert.True(t, apperrors.Is(err, domain.ErrUsernameTaken))
	})
}

func TestPostgreSQLUserRepository_ActivateWithChallenge(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		repo, mock := setupMockDB(t)

		mock.ExpectExec("UPDATE users SET challenge_encrypted").
			WithArgs("c2VhbGVk", string(domain.UserStatusActive), "alice", "123456789", string(domain.UserStatusRequested)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.ActivateWithChallenge(context.Background(), "alice", "123456789", "c2VhbGVk")
		assert.NoError(t, err)
	})

	t.Run("Error_ReplayMapsToRegistrationNotFound", func(t *testing.T) {
		repo, mock := setupMockDB(t)

		mock.ExpectExec("UPDATE users SET challenge_encrypted").
			WithArgs("c2VhbGVk", string(domain.UserStatusActive), "alice", "123456789", string(domain.UserStatusRequested)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.ActivateWithChallenge(context.Background(), "alice", "123456789", "c2VhbGVk")
		assert.True(t, apperrors.Is(err, domain.ErrRegistrationNotFound))
	})
}

func TestPostgreSQLUserRepository_GetActive(t *testing.T) {
	columns := []string{"id", "username", "nonce", "challenge", "challenge_encrypted", "status", "created_at"}

	t.Run("Success", func(t *testing.T) {
		repo, mock := setupMockDB(t)

		mock.ExpectQuery("SELECT id, username, nonce, challenge, challenge_encrypted, status, created_at").
			WithArgs("Alice", string(domain.UserStatusActive)).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow(int64(7), "alice", "123456789", "XYZchallenge", "c2VhbGVk", "active", time.Now()))

		user, err := repo.GetActive(context.Background(), "Alice")
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
		assert.Equal(t, "c2VhbGVk", user.ChallengeEncrypted)
		assert.Equal(t, domain.UserStatusActive, user.Status)
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		repo, mock := setupMockDB(t)

		mock.ExpectQuery("SELECT id, username, nonce, challenge, challenge_encrypted, status, created_at").
			WithArgs("nobody", string(domain.UserStatusActive)).
			WillReturnRows(sqlmock.NewRows(columns))

		user, err := repo.GetActive(context.Background(), "nobody")
		assert.Nil(t, user)
		assert.True(t, apperrors.Is(err, domain.ErrUserNotFound))
	})
}
