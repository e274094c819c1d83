// Package repository provides data persistence implementations for post entities.
package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/capsulen/capsulen/internal/database"
	apperrors "github.com/capsulen/capsulen/internal/errors"
	"github.com/capsulen/capsulen/internal/post/domain"
)

// PostgreSQLPostRepository handles post persistence for PostgreSQL
type PostgreSQLPostRepository struct {
	db *sql.DB
}

// NewPostgreSQLPostRepository creates a new PostgreSQLPostRepository
func NewPostgreSQLPostRepository(db *sql.DB) *PostgreSQLPostRepository {
	return &PostgreSQLPostRepository{
		db: db,
	}
}

// Create inserts a new post
func (r *PostgreSQLPostRepository) Create(ctx context.Context, post *domain.Post) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO posts (user_id, content, created_at)
			  VALUES ($1, $2, NOW())
			  RETURNING id, created_at`

	err := querier.QueryRowContext(ctx, query, post.UserID, post.Content).
		Scan(&post.ID, &post.CreatedAt)
	if err != nil {
		return apperrors.Wrap(err, "failed to create post")
	}

	return nil
}

// ListByUser returns up to limit posts owned by userID, newest first.
// beforeID > 0 restricts the page to posts older than that id, for cursoring.
func (r *PostgreSQLPostRepository) ListByUser(ctx context.Context, userID, beforeID int64, limit int) ([]*domain.Post, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, content, created_at
			  FROM posts WHERE user_id = $1 AND ($2 <= 0 OR id < $2)
			  ORDER BY id DESC LIMIT $3`

	rows, err := querier.QueryContext(ctx, query, userID, beforeID, limit)
	if err != nil {
		return nil, apperrors.Wrap(err, "failed to list posts")
	}
	defer func() { _ = rows.Close() }()

	var posts []*domain.Post
	for rows.Next() {
		var post domain.Post
		if err := rows.Scan(&post.ID, &post.UserID, &post.Content, &post.CreatedAt); err != nil {
			return nil, apperrors.Wrap(err, "failed to scan post")
		}
		posts = append(posts, &post)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Wrap(err, "failed to iterate posts")
	}

	return posts, nil
}

// GetByIDForUser retrieves a post owned by userID. A post that exists but
// belongs to someone else fails with domain.ErrPostNotFound, same as a
// missing one.
func (r *PostgreSQLPostRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*domain.Post, error) {
	var post domain.Post
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, content, created_at
			  FROM posts WHERE id = $1 AND user_id = $2`

	err := querier.QueryRowContext(ctx, query, id, userID).Scan(
		&post.ID, &post.UserID, &post.Content, &post.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, apperrors.Wrap(err, "failed to get post")
	}

	return &post, nil
}

// Delete removes a post owned by userID. Zero affected rows maps to
// domain.ErrPostNotFound.
func (r *PostgreSQLPostRepository) Delete(ctx context.Context, id, userID int64) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM posts WHERE id = $1 AND user_id = $2`

	result, err := querier.ExecContext(ctx, query, id, userID)
	if err != nil {
		return apperrors.Wrap(err, "failed to delete post")
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return apperrors.Wrap(err, "failed to read delete result")
	}
	if rows == 0 {
		return domain.ErrPostNotFound
	}

	return nil
}
