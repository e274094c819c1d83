// Package repository provides data persistence implementations for invite entities.
package repository

import (
	"context"
	"database/sql"

	"github.com/capsulen/capsulen/internal/database"
	apperrors "github.com/capsulen/capsulen/internal/errors"
	"github.com/capsulen/capsulen/internal/invite/domain"
)

// MySQLInviteRepository handles invite persistence for MySQL
type MySQLInviteRepository struct {
	db *sql.DB
}

// NewMySQLInviteRepository creates a new MySQLInviteRepository
func NewMySQLInviteRepository(db *sql.DB) *MySQLInviteRepository {
	return &MySQLInviteRepository{
		db: db,
	}
}

// Create inserts a new pending invite
func (r *MySQLInviteRepository) Create(ctx context.Context, invite *domain.Invite) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO invites (code, status, created_at)
			  VALUES (?, ?, NOW())`

	result, err := querier.ExecContext(ctx, query, invite.Code, domain.InviteStatusPending)
	if err != nil {
		return apperrors.Wrap(err, "failed to create invite")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return apperrors.Wrap(err, "failed to read created invite id")
	}

	invite.ID = id
	invite.Status = domain.InviteStatusPending
	return nil
}

// Consume flips a pending invite to used. A code that is unknown or already
// used fails with domain.ErrInviteCodeInvalid.
func (r *MySQLInviteRepository) Consume(ctx context.Context, code string) error {
	querier := database.GetTx(ctx, r.db)

	query := `UPDATE invites SET status = ?, used_at = NOW()
			  WHERE code = ? AND status = ?`

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
