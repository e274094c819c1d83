// Package http provides HTTP handlers for post operations. All routes
// require an authenticated identity resolved by the auth middleware.
package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	authDomain "github.com/capsulen/capsulen/internal/auth/domain"
	authHTTP "github.com/capsulen/capsulen/internal/auth/http"
	"github.com/capsulen/capsulen/internal/httputil"
	"github.com/capsulen/capsulen/internal/post/http/dto"
	postUseCase "github.com/capsulen/capsulen/internal/post/usecase"
	userUseCase "github.com/capsulen/capsulen/internal/user/usecase"
)

// PostHandler handles post-related HTTP requests
type PostHandler struct {
	postUseCase postUseCase.UseCase
	userUseCase userUseCase.UseCase
	logger      *slog.Logger
}

// NewPostHandler creates a new PostHandler
func NewPostHandler(postUC postUseCase.UseCase, userUC userUseCase.UseCase, logger *slog.Logger) *PostHandler {
	return &PostHandler{
		postUseCase: postUC,
		userUseCase: userUC,
		logger:      logger,
	}
}

// CreateHandler stores a new client-sealed post for the authenticated user.
// POST /api/posts
// Returns 201 Created with the post's opaque id.
func (h *PostHandler) CreateHandler(c *gin.Context) {
	userID, ok := h.resolveUser(c)
	if !ok {
		return
	}

	var req dto.CreatePostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httputil.HandleMalformedRequestGin(c, err, h.logger)
		return
	}

	if err := req.Validate(); err != nil {
		httputil.HandleMalformedRequestGin(c, err, h.logger)
		return
	}

	output, err := h.postUseCase.CreatePost(c.Request.Context(), userID, dto.ToCreatePostInput(req))
	if err != nil {
		httputil.HandleErrorGin(c, err, "", h.logger)
		return
	}

	c.JSON(http.StatusCreated, output)
}

// ListHandler returns a page of the authenticated user's posts, newest
// first. The from query parameter is an opaque cursor.
// GET /api/posts?from=<opaque-id>&limit=N
func (h *PostHandler) ListHandler(c *gin.Context) {
	userID, ok := h.resolveUser(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			httputil.HandleMalformedRequestGin(c, err, h.logger)
			return
		}
		limit = parsed
	}

	outputs, err := h.postUseCase.ListPosts(c.Request.Context(), userID, c.Query("from"), limit)
	if err != nil {
		httputil.HandleErrorGin(c, err, "", h.logger)
		return
	}

	c.JSON(http.StatusOK, outputs)
}

// GetHandler returns one of the authenticated user's posts by opaque id.
// GET /api/posts/:id
func (h *PostHandler) GetHandler(c *gin.Context) {
	userID, ok := h.resolveUser(c)
	if !ok {
		return
	}

	output, err := h.postUseCase.GetPost(c.Request.Context(), userID, c.Param("id"))
	if err != nil {
		httputil.HandleErrorGin(c, err, "", h.logger)
		return
	}

	c.JSON(http.StatusOK, output)
}

// DeleteHandler removes one of the authenticated user's posts by opaque id.
// DELETE /api/posts/:id
// Returns 204 No Content on success.
func (h *PostHandler) DeleteHandler(c *gin.Context) {
	userID, ok := h.resolveUser(c)
	if !ok {
		return
	}

	if err := h.postUseCase.DeletePost(c.Request.Context(), userID, c.Param("id")); err != nil {
		httputil.HandleErrorGin(c, err, "", h.logger)
		return
	}

	c.Status(http.StatusNoContent)
}

// resolveUser maps the authenticated username to its database id. Ownership
// of every queried resource is scoped by this id, independent of whether a
// client-supplied opaque id decoded successfully.
func (h *PostHandler) resolveUser(c *gin.Context) (int64, bool) {
	username, ok := authHTTP.GetUsername(c.Request.Context())
	if !ok {
		httputil.HandleErrorGin(c, authDomain.ErrInvalidToken, httputil.KeyInvalidToken, h.logger)
		return 0, false
	}

	user, err := h.userUseCase.GetActiveUser(c.Request.Context(), username)
	if err != nil {
		httputil.HandleErrorGin(c, err, "", h.logger)
		return 0, false
	}

	return user.ID, true
}
