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

// MySQLUserRepository handles user persistence for MySQL. Usernames compare
// case-insensitively through the table's collation, so no LOWER() is needed.
type MySQLUserRepository struct {
	db *sql.DB
}

// NewMySQLUserRepository creates a new MySQLUserRepository
func NewMySQLUserRepository(db *sql.DB) *MySQLUserRepository {
	return &MySQLUserRepository{
		db: db,
	}
}

// ExistsUsername reports whether any row, requested or active, holds the username.
func (r *MySQLUserRepository) ExistsUsername(ctx context.Context, username string) (bool, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = ?)`

	var exists bool
	if err := querier.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, apperrors.Wrap(err, "failed to check username existence")
	}
	return exists, nil
}

// CreateRequest inserts a user in the requested state. The unique index on
// username is the final arbiter under concurrent registration; the losing
// insert maps to domain.ErrUsernameTaken.
func (r *MySQLUserRepository) CreateRequest(ctx context.Context, user *domain.User) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO users (username, nonce, challenge, status, created_at)
			  VALUES (?, ?, ?, ?, NOW())`

	result, err := querier.ExecContext(ctx, query, user.Username, user.Nonce, user.Challenge, domain.UserStatusRequested)
	if err != nil {
		if isMySQLUniqueViolation(err) {
			return domain.ErrUsernameTaken
		}
		return apperrors.Wrap(err, "failed to create user request")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return apperrors.Wrap(err, "failed to read created user id")
	}

	user.ID = id
	user.Status = domain.UserStatusRequested
	return nil
}

// ActivateWithChallenge stores the client-sealed challenge and flips the row
// to active. No row matching (username, nonce, requested) maps to
// domain.ErrRegistrationNotFound.
func (r *MySQLUserRepository) ActivateWithChallenge(ctx context.Context, username, nonce, challengeEncrypted string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE users SET challenge_encrypted = ?, status = ?
			  WHERE username = ? AND nonce = ? AND status = ?`

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

// GetActive retrieves an active user by username
func (r *MySQLUserRepository) GetActive(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	var challengeEncrypted sql.NullString
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, username, nonce, challenge, challenge_encrypted, status, created_at
			  FROM users WHERE username = ? AND status = ?`

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

// isMySQLUniqueViolation checks if the error is a MySQL unique constraint violation
func isMySQLUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errMsg := strings.ToLower(err.Error())
	// MySQL: "Error 1062: Duplicate entry"
	return strings.Contains(errMsg, "duplicate entry") || strings.Contains(errMsg, "error 1062")
}
