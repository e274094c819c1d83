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

// MySQLPostRepository handles post persistence for MySQL
type MySQLPostRepository struct {
	db *sql.DB
}

// NewMySQLPostRepository creates a new MySQLPostRepository
func NewMySQLPostRepository(db *sql.DB) *MySQLPostRepository {
	return &MySQLPostRepository{
		db: db,
	}
}

// Create inserts a new post
func (r *MySQLPostRepository) Create(ctx context.Context, post *domain.Post) error {
	querier := database.GetTx(ctx, r.db)

	query := `INSERT INTO posts (user_id, content, created_at)
			  VALUES (?, ?, NOW())`

	result, err := querier.ExecContext(ctx, query, post.UserID, post.Content)
	if err != nil {
		return apperrors.Wrap(err, "failed to create post")
	}

	id, err := result.LastInsertId()
	if err != nil {
		return apperrors.Wrap(err, "failed to read created post id")
	}

	post.ID = id
	return nil
}

// ListByUser returns up to limit posts owned by userID, newest first.
// beforeID > 0 restricts the page to posts older than that id, for cursoring.
func (r *MySQLPostRepository) ListByUser(ctx context.Context, userID, beforeID int64, limit int) ([]*domain.Post, error) {
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, content, created_at
			  FROM posts WHERE user_id = ? AND (? <= 0 OR id < ?)
			  ORDER BY id DESC LIMIT ?`

	rows, err := querier.QueryContext(ctx, query, userID, beforeID, beforeID, limit)
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
func (r *MySQLPostRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*domain.Post, error) {
	var post domain.Post
	querier := database.GetTx(ctx, r.db)

	query := `SELECT id, user_id, content, created_at
			  FROM posts WHERE id = ? AND user_id = ?`

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
func (r *MySQLPostRepository) Delete(ctx context.Context, id, userID int64) error {
	querier := database.GetTx(ctx, r.db)

	query := `DELETE FROM posts WHERE id = ? AND user_id = ?`

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
