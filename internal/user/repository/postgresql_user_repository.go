// Package repository provides data persistence implementations for user entities.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/capsulen/capsulen/internal/database"
	"github.com/capsulen/capsulen/internal/user/domain"

	apperrors "github.com/capsulen/capsulen/internal/errors"
)

// PostgreSQLUserRepository handles user persistence for PostgreSQL
type PostgreSQLUserRepository struct {
	db *sql.DB
}

// NewPostgreSQLUserRepository creates a new PostgreSQLUserRepository
func NewPostgreSQLUserRepository(db *sql.DB) *PostgreSQLUserRepository {
	return &PostgreSQLUserRepository{
		db: db,
	}
}

// ExistsUsername reports whether any row, requested or active, holds the
// username case-insensitively.
func (r *PostgreSQLUserRepository) ExistsUsername(ctx context.Context, username string) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(username) = LOWER($1))`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check username existence")
	}
	return exists, nil
}

// CreateRequest inserts a user in the requested state. The unique index on
// LOWER(username) is the final arbiter under concurrent registration; the
// losing insert maps to domain.ErrUsernameTaken.
func (r *PostgreSQLUserRepository) CreateRequest(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO users (username, nonce, challenge, status, created_at)
			  VALUES ($1, $2, $3, $4, NOW())
			  RETURNING id, created_at`

	err := querier.QueryRowContext(ctx, query, user.Username, user.Nonce, user.Challenge, domain.UserStatusRequested).
		Scan(&user.ID, &user.CreatedAt)
	if err != nil {
		if isPostgreSQLUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return apperrors.Wrap(err, "failed to create user request")
	}

	user.Status = domain.UserStatusRequested
	return nil
}

// ActivateWithChallenge stores the client-sealed challenge and flips the row
// to active. No row matching (username, nonce, requested) means the request
// never existed or was already completed; both map to
// domain.ErrRegistrationNotFound.
func (r *PostgreSQLUserRepository) ActivateWithChallenge(ctx context.Context, username, nonce, challengeEncrypted string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users SET challenge_encrypted = $1, status = $2
			  WHERE LOWER(username) = LOWER($3) AND nonce = $4 AND status = $5`

	result, err := querier.ExecContext(ctx, query,
		challengeEncrypted, domain.UserStatusActive, username, nonce, domain.UserStatusRequested)
	if err != nil {
		return apperrors.Wrap(err, "failed to activate user")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read activation result")
	}
	if rows == 0 {
		return domain.ErrRegistrationNotFound
	}

	return nil
}

// GetActive retrieves an active user by case-insensitive username
func (r *PostgreSQLUserRepository) GetActive(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	var challengeEncrypted sql.NullString
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, username, nonce, challenge, challenge_encrypted, status, created_at
			  FROM users WHERE LOWER(username) = LOWER($1) AND status = $2`

	err := querier.QueryRowContext(ctx, query, username, domain.UserStatusActive).Scan(
		&user.ID, &user.Username, &user.Nonce, &user.Challenge, &challengeEncrypted, &user.Status, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get active user")
	}

	user.ChallengeEncrypted = challengeEncrypted.String
	return &user, nil
}

// isPostgreSQLUniqueViolation checks if the error is a PostgreSQL unique constraint violation
func isPostgreSQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// PostgreSQL: "duplicate key value violates unique constraint" or "pq: duplicate key"
	return strings.Contains(errMsg, "duplicate key") || strings.Contains(errMsg, "unique constraint")
}
