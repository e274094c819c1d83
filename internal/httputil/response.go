// Package httputil provides HTTP utility functions for request and response handling.
package httputil

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/capsulen/capsulen/internal/errors"
)

// ErrorResponse is the only failure shape the API produces: a terse,
// machine-readable key suitable for client-side localization. Internal error
// detail is logged, never serialized.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Error keys exposed by the API.
const (
	KeyUsernameInUse        = "USERNAME_IN_USE"
	KeyInviteCodeInvalid    = "INVITE_CODE_INVALID"
	KeyRegisterError        = "REGISTER_ERROR"
	KeyCredentialsIncorrect = "CREDENTIALS_INCORRECT"
	KeyLoginError           = "LOGIN_ERROR"
	KeyInvalidToken         = "INVALID_TOKEN"
	KeyNotFound             = "NOT_FOUND"
	KeyMalformedRequest     = "MALFORMED_REQUEST"
	KeyRateLimited          = "RATE_LIMITED"
	KeyInternalError        = "INTERNAL_ERROR"
)

// statusForKey maps protocol error keys to HTTP status codes.
var statusForKey = map[string]int{
	KeyUsernameInUse:        http.StatusBadRequest,
	KeyInviteCodeInvalid:    http.StatusBadRequest,
	KeyRegisterError:        http.StatusInternalServerError,
	KeyCredentialsIncorrect: http.StatusBadRequest,
	KeyLoginError:           http.StatusInternalServerError,
	KeyInvalidToken:         http.StatusUnauthorized,
	KeyNotFound:             http.StatusNotFound,
	KeyMalformedRequest:     http.StatusBadRequest,
	KeyRateLimited:          http.StatusTooManyRequests,
	KeyInternalError:        http.StatusInternalServerError,
}

// HandleErrorGin maps a domain error to an HTTP status code and terse error
// key. Errors carrying an explicit key (errors.WithKey) use the key's status;
// unkeyed errors fall back to their sentinel category, and unknown errors to
// a 500 with fallbackKey so internal detail never reaches the client.
func HandleErrorGin(c *gin.Context, err error, fallbackKey string, logger *slog.Logger) {
	if err == nil {
		return
	}

	statusCode, key := classify(err, fallbackKey)

	// Log the full error chain; the response only carries the key.
	if logger != nil {
		logger.Error("request failed",
			slog.Int("status_code", statusCode),
			slog.String("error_key", key),
			slog.Any("error", err),
		)
	}

	c.JSON(statusCode, ErrorResponse{Error: key})
}

// HandleMalformedRequestGin writes a 400 response for request bodies that
// fail JSON binding or schema validation, before any protocol logic runs.
func HandleMalformedRequestGin(c *gin.Context, err error, logger *slog.Logger) {
	if logger != nil {
		logger.Warn("malformed request", slog.Any("error", err))
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{Error: KeyMalformedRequest})
}

// classify resolves the status code and key for an error chain.
func classify(err error, fallbackKey string) (int, string) {
	if key, ok := apperrors.Key(err); ok {
		if status, known := statusForKey[key]; known {
			return status, key
		}
		return http.StatusInternalServerError, key
	}

	switch {
	case apperrors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, KeyNotFound
	case apperrors.Is(err, apperrors.ErrInvalidInput):
		return http.StatusBadRequest, KeyMalformedRequest
	case apperrors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized, KeyInvalidToken
	case apperrors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden, KeyNotFound
	case apperrors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict, fallbackOr(fallbackKey, KeyInternalError)
	default:
		return http.StatusInternalServerError, fallbackOr(fallbackKey, KeyInternalError)
	}
}

func fallbackOr(key, def string) string {
	if key != "" {
		return key
	}
	return def
}
