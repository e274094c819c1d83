package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	authDomain "github.com/capsulen/capsulen/internal/auth/domain"
	authHTTP "github.com/capsulen/capsulen/internal/auth/http"
	authService "github.com/capsulen/capsulen/internal/auth/service"
	"github.com/capsulen/capsulen/internal/httputil"
	"github.com/capsulen/capsulen/internal/opaqueid"
	postDomain "github.com/capsulen/capsulen/internal/post/domain"
	postUseCase "github.com/capsulen/capsulen/internal/post/usecase"
	userDomain "github.com/capsulen/capsulen/internal/user/domain"
	userUseCase "github.com/capsulen/capsulen/internal/user/usecase"
)

type mockUserUseCase struct {
	mock.Mock
}

func (m *mockUserUseCase) RequestAccess(ctx context.Context, input userUseCase.RequestAccessInput) (*userUseCase.RequestAccessOutput, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userUseCase.RequestAccessOutput), args.Error(1)
}

func (m *mockUserUseCase) CreateUser(ctx context.Context, input userUseCase.CreateUserInput) error {
	args := m.Called(ctx, input)
	return args.Error(0)
}

func (m *mockUserUseCase) RequestLogin(ctx context.Context, username string) (string, error) {
	args := m.Called(ctx, username)
	return args.String(0), args.Error(1)
}

func (m *mockUserUseCase) Login(ctx context.Context, input userUseCase.LoginInput) (string, error) {
	args := m.Called(ctx, input)
	return args.String(0), args.Error(1)
}

func (m *mockUserUseCase) GetActiveUser(ctx context.Context, username string) (*userDomain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userDomain.User), args.Error(1)
}

type mockPostRepository struct {
	mock.Mock
}

func (m *mockPostRepository) Create(ctx context.Context, post *postDomain.Post) error {
	args := m.Called(ctx, post)
	return args.Error(0)
}

func (m *mockPostRepository) GetByIDForUser(ctx context.Context, id, userID int64) (*postDomain.Post, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*postDomain.Post), args.Error(1)
}

func (m *mockPostRepository) ListByUser(ctx context.Context, userID, beforeID int64, limit int) ([]*postDomain.Post, error) {
	args := m.Called(ctx, userID, beforeID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*postDomain.Post), args.Error(1)
}

func (m *mockPostRepository) Delete(ctx context.Context, id, userID int64) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}

type handlerFixture struct {
	router *gin.Engine
	token  string
	codec  *opaqueid.Codec
	repo   *mockPostRepository
}

func setupFixture(t *testing.T) *handlerFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := authDomain.GenerateSigningKey()
	require.NoError(t, err)
	authority := authService.NewTokenAuthority(key, time.Hour)

	token, err := authority.Issue("alice")
	require.NoError(t, err)

	codec, err := opaqueid.NewCodec("test-opaque-secret", 8)
	require.NoError(t, err)

	repo := &mockPostRepository{}
	postUC := postUseCase.NewPostUseCase(repo, codec)

	userUC := &mockUserUseCase{}
	userUC.On("GetActiveUser", mock.Anything, "alice").
		Return(&userDomain.User{ID: 7, Username: "alice", Status: userDomain.UserStatusActive}, nil).
		Maybe()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewPostHandler(postUC, userUC, logger)

	router := gin.New()
	authorized := router.Group("/api", authHTTP.AuthMiddleware(authority, logger))
	authorized.POST("/posts", handler.CreateHandler)
	authorized.GET("/posts", handler.ListHandler)
	authorized.GET("/posts/:id", handler.GetHandler)
	authorized.DELETE("/posts/:id", handler.DeleteHandler)

	return &handlerFixture{router: router, token: token, codec: codec, repo: repo}
}

func (f *handlerFixture) perform(method, path string, body []byte) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Authorization", "Bearer "+f.token)
	req.Header.Set("Content-Type", "application/json")
	f.router.ServeHTTP(w, req)
	return w
}

func TestCreateHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := setupFixture(t)
		f.repo.On("Create", mock.Anything, mock.AnythingOfType("*domain.Post")).
			Run(func(args mock.Arguments) {
				post := args.Get(1).(*postDomain.Post)
				post.ID = 42
				post.CreatedAt = time.Now()
			}).
			Return(nil)

		body, _ := json.Marshal(gin.H{"content": "c2VhbGVkLWNvbnRlbnQ="})
		w := f.perform(http.MethodPost, "/api/posts", body)
		assert.Equal(t, http.StatusCreated, w.Code)

		var output postUseCase.PostOutput
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &output))

		decoded, err := f.codec.Decode(output.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(42), decoded)
	})

	t.Run("Error_Unauthenticated", func(t *testing.T) {
		f := setupFixture(t)

		body, _ := json.Marshal(gin.H{"content": "c2VhbGVkLWNvbnRlbnQ="})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(body))
		f.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestListHandler(t *testing.T) {
	t.Run("Success_OpaqueCursorRoundTrip", func(t *testing.T) {
		f := setupFixture(t)

		cursor, err := f.codec.Encode(41)
		require.NoError(t, err)

		f.repo.On("ListByUser", mock.Anything, int64(7), int64(41), 10).
			Return([]*postDomain.Post{{ID: 40, UserID: 7, Content: "c2VhbGVk"}}, nil)

		w := f.perform(http.MethodGet, "/api/posts?from="+cursor+"&limit=10", nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var outputs []postUseCase.PostOutput
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outputs))
		require.Len(t, outputs, 1)
	})

	t.Run("Error_BadCursorIsNotFound", func(t *testing.T) {
		f := setupFixture(t)

		w := f.perform(http.MethodGet, "/api/posts?from=zzzz-zzzz", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		var response httputil.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, httputil.KeyNotFound, response.Error)
	})
}

func TestGetHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := setupFixture(t)

		opaque, err := f.codec.Encode(42)
		require.NoError(t, err)

		f.repo.On("GetByIDForUser", mock.Anything, int64(42), int64(7)).
			Return(&postDomain.Post{ID: 42, UserID: 7, Content: "c2VhbGVk"}, nil)

		w := f.perform(http.MethodGet, "/api/posts/"+opaque, nil)
		assert.Equal(t, http.StatusOK, w.Code)

		var output postUseCase.PostOutput
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &output))
		assert.Equal(t, opaque, output.ID)
		assert.Equal(t, "c2VhbGVk", output.Content)
	})

	t.Run("Error_OtherOwnersPostIsNotFound", func(t *testing.T) {
		f := setupFixture(t)

		opaque, err := f.codec.Encode(42)
		require.NoError(t, err)

		f.repo.On("GetByIDForUser", mock.Anything, int64(42), int64(7)).
			Return(nil, postDomain.ErrPostNotFound)

		w := f.perform(http.MethodGet, "/api/posts/"+opaque, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestDeleteHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := setupFixture(t)

		opaque, err := f.codec.Encode(42)
		require.NoError(t, err)

		f.repo.On("Delete", mock.Anything, int64(42), int64(7)).Return(nil)

		w := f.perform(http.MethodDelete, "/api/posts/"+opaque, nil)
		assert.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("Error_OtherOwnersPostIsNotFound", func(t *testing.T) {
		f := setupFixture(t)

		opaque, err := f.codec.Encode(42)
		require.NoError(t, err)

		f.repo.On("Delete", mock.Anything, int64(42), int64(7)).
			Return(postDomain.ErrPostNotFound)

		w := f.perform(http.MethodDelete, "/api/posts/"+opaque, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}
