// Package usecase implements post business logic. Post content is an opaque
// ciphertext blob sealed on the client; the server stores and returns it
// without interpretation.
package usecase

import (
	"context"
	"time"

	validation "github.com/jellydator/validation"

	"github.com/capsulen/capsulen/internal/opaqueid"
	"github.com/capsulen/capsulen/internal/post/domain"
	appValidation "github.com/capsulen/capsulen/internal/validation"
)

const (
	// DefaultPageSize bounds a list page when the caller does not ask for
	// a specific size.
	DefaultPageSize = 20

	// MaxPageSize caps a caller-supplied page size.
	MaxPageSize = 100

	maxContentLength = 64 * 1024
)

// CreatePostInput contains the input data for post creation
type CreatePostInput struct {
	Content string `json:"content"`
}

// PostOutput is the external representation of a post. The database id is
// replaced by its opaque encoding.
type PostOutput struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

// UseCase defines the interface for post business logic operations
type UseCase interface {
	// CreatePost stores a client-sealed content blob for the user.
	CreatePost(ctx context.Context, userID int64, input CreatePostInput) (*PostOutput, error)

	// ListPosts returns a page of the user's posts, newest first. from is
	// an optional opaque cursor: the page starts strictly after it.
	ListPosts(ctx context.Context, userID int64, from string, limit int) ([]*PostOutput, error)

	// GetPost returns one of the user's posts by opaque id.
	GetPost(ctx context.Context, userID int64, opaqueID string) (*PostOutput, error)

	// DeletePost removes one of the user's posts by opaque id.
	DeletePost(ctx context.Context, userID int64, opaqueID string) error
}

// PostRepository interface defines post repository operations
type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByIDForUser(ctx context.Context, id, userID int64) (*domain.Post, error)
	ListByUser(ctx context.Context, userID, beforeID int64, limit int) ([]*domain.Post, error)
	Delete(ctx context.Context, id, userID int64) error
}

// PostUseCase handles post-related business logic
type PostUseCase struct {
	postRepo PostRepository
	codec    *opaqueid.Codec
}

// NewPostUseCase creates a new PostUseCase
func NewPostUseCase(postRepo PostRepository, codec *opaqueid.Codec) *PostUseCase {
	return &PostUseCase{
		postRepo: postRepo,
		codec:    codec,
	}
}

// CreatePost validates and stores the content blob and returns its external
// representation.
func (uc *PostUseCase) CreatePost(ctx context.Context, userID int64, input CreatePostInput) (*PostOutput, error) {
	err := validation.ValidateStruct(&input,
		validation.Field(&input.Content,
			validation.Required.Error("content is required"),
			appValidation.Base64,
			validation.Length(1, maxContentLength).Error("content is too large"),
		),
	)
	if err != nil {
		return nil, appValidation.WrapValidationError(err)
	}

	post := &domain.Post{UserID: userID, Content: input.Content}
	if err := uc.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}

	return uc.toOutput(post)
}

// ListPosts returns a page of the user's posts. A cursor that does not
// decode fails as "no such resource", never as a server error.
func (uc *PostUseCase) ListPosts(ctx context.Context, userID int64, from string, limit int) ([]*PostOutput, error) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	var beforeID int64
	if from != "" {
		id, err := uc.codec.Decode(from)
		if err != nil {
			return nil, err
		}
		beforeID = id
	}

	posts, err := uc.postRepo.ListByUser(ctx, userID, beforeID, limit)
	if err != nil {
		return nil, err
	}

	outputs := make([]*PostOutput, 0, len(posts))
	for _, post := range posts {
		output, err := uc.toOutput(post)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, output)
	}

	return outputs, nil
}

// GetPost returns the post identified by opaqueID if the user owns it.
// A foreign or malformed id fails as "no such resource".
func (uc *PostUseCase) GetPost(ctx context.Context, userID int64, opaqueID string) (*PostOutput, error) {
	id, err := uc.codec.Decode(opaqueID)
	if err != nil {
		return nil, err
	}

	post, err := uc.postRepo.GetByIDForUser(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	return uc.toOutput(post)
}

// DeletePost removes the post identified by opaqueID if the user owns it.
// Ownership is enforced by the repository query, independent of whether
// the id decoded successfully.
func (uc *PostUseCase) DeletePost(ctx context.Context, userID int64, opaqueID string) error {
	id, err := uc.codec.Decode(opaqueID)
	if err != nil {
		return err
	}

	return uc.postRepo.Delete(ctx, id, userID)
}

func (uc *PostUseCase) toOutput(post *domain.Post) (*PostOutput, error) {
	encoded, err := uc.codec.Encode(post.ID)
	if err != nil {
		return nil, err
	}

	return &PostOutput{
		ID:        encoded,
		Content:   post.Content,
		CreatedAt: post.CreatedAt,
	}, nil
}
