// Package dto provides data transfer objects for the user HTTP layer.
package dto

import (
	"github.com/capsulen/capsulen/internal/user/usecase"
)

// RequestAccessResponse carries the plaintext nonce and challenge for
// registration step one. The client seals the challenge locally; the values
// themselves are not secrets.
type RequestAccessResponse struct {
	Nonce     string `json:"nonce"`
	Challenge string `json:"challenge"`
}

// ToRequestAccessResponse converts a use case output to a response DTO
func ToRequestAccessResponse(output *usecase.RequestAccessOutput) RequestAccessResponse {
	return RequestAccessResponse{
		Nonce:     output.Nonce,
		Challenge: output.Challenge,
	}
}
