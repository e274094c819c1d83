// Package dto provides data transfer objects for the post HTTP layer.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/capsulen/capsulen/internal/post/usecase"
	appValidation "github.com/capsulen/capsulen/internal/validation"
)

// CreatePostRequest represents the API request for post creation. Content is
// the client-sealed envelope; the server never opens it.
type CreatePostRequest struct {
	Content string `json:"content"`
}

// Validate checks the request shape; format rules live in the use case.
func (r *CreatePostRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Content,
			validation.Required.Error("content is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// ToCreatePostInput converts a CreatePostRequest DTO to a use case input
func ToCreatePostInput(req CreatePostRequest) usecase.CreatePostInput {
	return usecase.CreatePostInput{
		Content: req.Content,
	}
}
