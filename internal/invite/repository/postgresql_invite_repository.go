// Package repository provides data persistence implementations for invite entities.
package repository

import (
	"context"
	"database/sql"

	"github.com/capsulen/capsulen/internal/database"
	apperrors "github.com/capsulen/capsulen/internal/errors"
	"github.com/capsulen/capsulen/internal/invite/domain"
)

// PostgreSQLInviteRepository handles invite persistence for PostgreSQL
type PostgreSQLInviteRepository struct {
	db *sql.DB
}

// NewPostgreSQLInviteRepository creates a new PostgreSQLInviteRepository
func NewPostgreSQLInviteRepository(db *sql.DB) *PostgreSQLInviteRepository {
	return &PostgreSQLInviteRepository{
		db: db,
	}
}

// Create inserts a new pending invite
func (r *PostgreSQLInviteRepository) Create(ctx context.Context, invite *domain.Invite) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO invites (code, status, created_at)
			  VALUES ($1, $2, NOW())
			  RETURNING id, created_at`

	err := querier.QueryRowContext(ctx, query, invite.Code, domain.InviteStatusPending).
		Scan(&invite.ID, &invite.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create invite")
	}

	invite.Status = domain.InviteStatusPending
	return nil
}

// Consume flips a pending invite to used. A code that is unknown or already
// used fails with domain.ErrInviteCodeInvalid.
func (r *PostgreSQLInviteRepository) Consume(ctx context.Context, code string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE invites SET status = $1, used_at = NOW()
			  WHERE code = $2 AND status = $3`

	result, err := querier.ExecContext(ctx, query, domain.InviteStatusUsed, code, domain.InviteStatusPending)
	if err != nil {
		return apperrors.Wrap(err, "failed to consume invite")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read consume invite result")
	}
	if rows == 0 {
		return domain.ErrInviteCodeInvalid
	}

	return nil
}
