// Package dto provides data transfer objects for the user HTTP layer.
package dto

import (
	validation "github.com/jellydator/validation"

	"github.com/capsulen/capsulen/internal/user/usecase"
	appValidation "github.com/capsulen/capsulen/internal/validation"
)

// RequestAccessRequest represents the API request for registration step one
type RequestAccessRequest struct {
	Username   string `json:"username"`
	InviteCode string `json:"inviteCode"`
}

// Validate checks the request shape; format rules live in the use case.
func (r *RequestAccessRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Username,
			validation.Required.Error("username is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// ToRequestAccessInput converts a RequestAccessRequest DTO to a use case input
func ToRequestAccessInput(req RequestAccessRequest) usecase.RequestAccessInput {
	return usecase.RequestAccessInput{
		Username:   req.Username,
		InviteCode: req.InviteCode,
	}
}

// CreateUserRequest represents the API request for registration step two
type CreateUserRequest struct {
	Username           string `json:"username"`
	Nonce              string `json:"nonce"`
	ChallengeEncrypted string `json:"challengeEncrypted"`
}

// Validate checks the request shape; format rules live in the use case.
func (r *CreateUserRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Username,
			validation.Required.Error("username is required"),
		),
		validation.Field(&r.Nonce,
			validation.Required.Error("nonce is required"),
		),
		validation.Field(&r.ChallengeEncrypted,
			validation.Required.Error("challengeEncrypted is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// ToCreateUserInput converts a CreateUserRequest DTO to a use case input
func ToCreateUserInput(req CreateUserRequest) usecase.CreateUserInput {
	return usecase.CreateUserInput{
		Username:           req.Username,
		Nonce:              req.Nonce,
		ChallengeEncrypted: req.ChallengeEncrypted,
	}
}

// RequestLoginRequest represents the API request for login step one
type RequestLoginRequest struct {
	Username string `json:"username"`
}

// Validate checks the request shape.
func (r *RequestLoginRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Username,
			validation.Required.Error("username is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// LoginRequest represents the API request for login step two
type LoginRequest struct {
	Username  string `json:"username"`
	Challenge string `json:"challenge"`
}

// Validate checks the request shape.
func (r *LoginRequest) Validate() error {
	err := validation.ValidateStruct(r,
		validation.Field(&r.Username,
			validation.Required.Error("username is required"),
		),
		validation.Field(&r.Challenge,
			validation.Required.Error("challenge is required"),
		),
	)
	return appValidation.WrapValidationError(err)
}

// ToLoginInput converts a LoginRequest DTO to a use case input
func ToLoginInput(req LoginRequest) usecase.LoginInput {
	return usecase.LoginInput{
		Username:  req.Username,
		Challenge: req.Challenge,
	}
}
