// Package http provides HTTP handlers for the registration and login
// challenge-response endpoints.
package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/capsulen/capsulen/internal/httputil"
	"github.com/capsulen/capsulen/internal/user/http/dto"
	"github.com/capsulen/capsulen/internal/user/usecase"
)

// UserHandler handles the user protocol HTTP requests
type UserHandler struct {
	userUseCase usecase.UseCase
	logger      *slog.Logger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userUseCase usecase.UseCase, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
		logger:      logger,
	}
}

// RequestAccessHandler runs registration step one.
// POST /api/users/request_access
// Returns 200 OK with the plaintext nonce and challenge.
func (h *UserHandler) RequestAccessHandler(c *gin.Context) {
	var req dto.RequestAccessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleMalformedRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleMalformedRequestGin(c, err, h.logger)
		return
	}

	output, err := h.userUseCase.RequestAccess(c.Request.Context(), dto.ToRequestAccessInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, httputil.KeyRegisterError, h.logger)
		return
	}

	c.JSON(http.StatusCreated, dto.ToRequestAccessResponse(output))
}

// CreateUserHandler runs registration step two.
// POST /api/users/create_user
// Returns 200 OK with the literal JSON value true.
func (h *UserHandler) CreateUserHandler(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleMalformedRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleMalformedRequestGin(c, err, h.logger)
		return
	}

	if err := h.userUseCase.CreateUser(c.Request.Context(), dto.ToCreateUserInput(req)); err != nil {
		httputil.HandleErrorGin(c, err, httputil.KeyRegisterError, h.logger)
		return
	}

	c.JSON(http.StatusOK, true)
}

// RequestLoginHandler runs login step one.
// POST /api/users/request_login
// Returns 200 OK with the stored encrypted challenge as a JSON string.
func (h *UserHandler) RequestLoginHandler(c *gin.Context) {
	var req dto.RequestLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleMalformedRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleMalformedRequestGin(c, err, h.logger)
		return
	}

	envelope, err := h.userUseCase.RequestLogin(c.Request.Context(), req.Username)
	if err != nil {
		httputil.HandleErrorGin(c, err, httputil.KeyLoginError, h.logger)
		return
	}

	c.JSON(http.StatusOK, envelope)
}

// LoginHandler runs login step two.
// POST /api/users/login
// Returns 200 OK with the signed session token as a JSON string.
func (h *UserHandler) LoginHandler(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleMalformedRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleMalformedRequestGin(c, err, h.logger)
		return
	}

	token, err := h.userUseCase.Login(c.Request.Context(), dto.ToLoginInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, httputil.KeyLoginError, h.logger)
		return
	}

	c.JSON(http.StatusOK, token)
}
