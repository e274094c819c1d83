package client

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	authDomain "github.com/capsulen/capsulen/internal/auth/domain"
	authHTTP "github.com/capsulen/capsulen/internal/auth/http"
	authService "github.com/capsulen/capsulen/internal/auth/service"
	"github.com/capsulen/capsulen/internal/crypto"
	apperrors "github.com/capsulen/capsulen/internal/errors"
	"github.com/capsulen/capsulen/internal/metrics"
	"github.com/capsulen/capsulen/internal/opaqueid"
	postDomain "github.com/capsulen/capsulen/internal/post/domain"
	postHTTP "github.com/capsulen/capsulen/internal/post/http"
	postUseCase "github.com/capsulen/capsulen/internal/post/usecase"
	userDomain "github.com/capsulen/capsulen/internal/user/domain"
	userHTTP "github.com/capsulen/capsulen/internal/user/http"
	userService "github.com/capsulen/capsulen/internal/user/service"
	userUseCase "github.com/capsulen/capsulen/internal/user/usecase"
)

const testKDFIterations = 1000

// memoryUserRepository is an in-memory stand-in for the SQL repositories,
// enforcing the same uniqueness and state-machine semantics.
type memoryUserRepository struct {
	mu     sync.Mutex
	users  map[string]*userDomain.User
	nextID int64
}

func newMemoryUserRepository() *memoryUserRepository {
	return &memoryUserRepository{users: make(map[string]*userDomain.User)}
}

func (r *memoryUserRepository) ExistsUsername(_ context.Context, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.users[strings.ToLower(username)]
	return ok, nil
}

func (r *memoryUserRepository) CreateRequest(_ context.Context, user *userDomain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(user.Username)
	if _, ok := r.users[key]; ok {
		return userDomain.ErrUsernameTaken
	}

	r.nextID++
	user.ID = r.nextID
	user.Status = userDomain.UserStatusRequested
	user.CreatedAt = time.Now()
	stored := *user
	r.users[key] = &stored
	return nil
}

func (r *memoryUserRepository) ActivateWithChallenge(_ context.Context, username, nonce, challengeEncrypted string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[strings.ToLower(username)]
	if !ok || user.Nonce != nonce || user.Status != userDomain.UserStatusRequested {
		return userDomain.ErrRegistrationNotFound
	}

	user.ChallengeEncrypted = challengeEncrypted
	user.Status = userDomain.UserStatusActive
	return nil
}

func (r *memoryUserRepository) GetActive(_ context.Context, username string) (*userDomain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[strings.ToLower(username)]
	if !ok || user.Status != userDomain.UserStatusActive {
		return nil, userDomain.ErrUserNotFound
	}

	copied := *user
	return &copied, nil
}

type memoryPostRepository struct {
	mu     sync.Mutex
	posts  map[int64]*postDomain.Post
	nextID int64
}

func newMemoryPostRepository() *memoryPostRepository {
	return &memoryPostRepository{posts: make(map[int64]*postDomain.Post)}
}

func (r *memoryPostRepository) Create(_ context.Context, post *postDomain.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	post.ID = r.nextID
	post.CreatedAt = time.Now()
	stored := *post
	r.posts[post.ID] = &stored
	return nil
}

func (r *memoryPostRepository) GetByIDForUser(_ context.Context, id, userID int64) (*postDomain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok || post.UserID != userID {
		return nil, postDomain.ErrPostNotFound
	}
	copied := *post
	return &copied, nil
}

func (r *memoryPostRepository) ListByUser(_ context.Context, userID, beforeID int64, limit int) ([]*postDomain.Post, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var posts []*postDomain.Post
	for id := r.nextID; id > 0 && len(posts) < limit; id-- {
		post, ok := r.posts[id]
		if !ok || post.UserID != userID {
			continue
		}
		if beforeID > 0 && id >= beforeID {
			continue
		}
		copied := *post
		posts = append(posts, &copied)
	}
	return posts, nil
}

func (r *memoryPostRepository) Delete(_ context.Context, id, userID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	post, ok := r.posts[id]
	if !ok || post.UserID != userID {
		return postDomain.ErrPostNotFound
	}
	delete(r.posts, id)
	return nil
}

type fakeTxManager struct{}

func (m *fakeTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type testServer struct {
	url       string
	authority authService.TokenAuthority
}

func setupServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	key, err := authDomain.GenerateSigningKey()
	require.NoError(t, err)
	authority := authService.NewTokenAuthority(key, time.Hour)

	codec, err := opaqueid.NewCodec("test-opaque-secret", 8)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	userUC := userUseCase.NewUserUseCase(
		&fakeTxManager{},
		newMemoryUserRepository(),
		nil,
		userService.NewChallengeService(),
		authority,
		metrics.NewNoOpBusinessMetrics(),
		false,
	)
	postUC := postUseCase.NewPostUseCase(newMemoryPostRepository(), codec)

	userHandler := userHTTP.NewUserHandler(userUC, logger)
	postHandler := postHTTP.NewPostHandler(postUC, userUC, logger)

	router := gin.New()
	router.POST("/api/users/request_access", userHandler.RequestAccessHandler)
	router.POST("/api/users/create_user", userHandler.CreateUserHandler)
	router.POST("/api/users/request_login", userHandler.RequestLoginHandler)
	router.POST("/api/users/login", userHandler.LoginHandler)

	authorized := router.Group("/api", authHTTP.AuthMiddleware(authority, logger))
	authorized.POST("/posts", postHandler.CreateHandler)
	authorized.GET("/posts", postHandler.ListHandler)
	authorized.GET("/posts/:id", postHandler.GetHandler)
	authorized.DELETE("/posts/:id", postHandler.DeleteHandler)

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &testServer{url: server.URL, authority: authority}
}

func newTestClient(t *testing.T, serverURL string) *Client {
	t.Helper()
	return New(serverURL, nil, WithKDFIterations(testKDFIterations))
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("Success_RegisterThenLoginIssuesVerifiableToken", func(t *testing.T) {
		server := setupServer(t)
		c := newTestClient(t, server.url)

		require.NoError(t, c.Register(ctx, "alice", "correct-horse", ""))

		token, err := c.Login(ctx, "alice", "correct-horse")
		require.NoError(t, err)

		subject, err := server.authority.Verify(token)
		require.NoError(t, err)
		assert.Equal(t, "alice", subject)
	})

	t.Run("Error_WrongPassphraseFailsLocally", func(t *testing.T) {
		server := setupServer(t)
		c := newTestClient(t, server.url)

		require.NoError(t, c.Register(ctx, "alice", "correct-horse", ""))

		_, err := c.Login(ctx, "alice", "wrong-horse")
		assert.True(t, apperrors.Is(err, crypto.ErrDecrypt))
		assert.Empty(t, c.Token())
	})

	t.Run("Error_GarbageChallengeSubmissionIsCredentialsIncorrect", func(t *testing.T) {
		server := setupServer(t)
		c := newTestClient(t, server.url)

		require.NoError(t, c.Register(ctx, "alice", "correct-horse", ""))

		// A client that bypasses local decryption and submits garbage gets
		// the same response as any other credential failure.
		var token string
		err := c.postJSON(ctx, "/api/users/login", map[string]string{
			"username":  "alice",
			"challenge": "garbage",
		}, &token)

		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
		assert.Equal(t, "CREDENTIALS_INCORRECT", apiErr.Key)
	})

	t.Run("Error_DuplicateUsername", func(t *testing.T) {
		server := setupServer(t)
		c := newTestClient(t, server.url)

		require.NoError(t, c.Register(ctx, "alice", "correct-horse", ""))

		err := c.Register(ctx, "ALICE", "other-secret", "")
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, "USERNAME_IN_USE", apiErr.Key)
	})
}

func TestEnumerationResistance(t *testing.T) {
	ctx := context.Background()
	server := setupServer(t)

	c := newTestClient(t, server.url)
	require.NoError(t, c.Register(ctx, "alice", "correct-horse", ""))

	fetchLoginError := func(username string) *APIError {
		var out string
		err := c.postJSON(ctx, "/api/users/request_login", map[string]string{"username": username}, &out)
		var apiErr *APIError
		require.ErrorAs(t, err, &apiErr)
		return apiErr
	}

	// An unknown username and a known-but-unactivated one yield byte-for-byte
	// identical failures.
	unknown := fetchLoginError("nobody")

	require.NoError(t, c.postJSON(ctx, "/api/users/request_access", map[string]string{"username": "bob"}, new(json.RawMessage)))
	pending := fetchLoginError("bob")

	assert.Equal(t, unknown.StatusCode, pending.StatusCode)
	assert.Equal(t, unknown.Key, pending.Key)
	assert.Equal(t, "CREDENTIALS_INCORRECT", unknown.Key)
}

func TestConcurrentRegistration(t *testing.T) {
	ctx := context.Background()
	server := setupServer(t)

	const attempts = 2
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			c := newTestClient(t, server.url)
			results <- c.Register(ctx, "alice", "correct-horse", "")
		}()
	}

	var successes, conflicts int
	for i := 0; i < attempts; i++ {
		err := <-results
		if err == nil {
			successes++
			continue
		}
		var apiErr *APIError
		if assert.ErrorAs(t, err, &apiErr) {
			assert.Equal(t, "USERNAME_IN_USE", apiErr.Key)
			conflicts++
		}
	}

	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, conflicts)
}

func TestRegistrationReplay(t *testing.T) {
	ctx := context.Background()
	server := setupServer(t)
	c := newTestClient(t, server.url)

	var access struct {
		Nonce     string `json:"nonce"`
		Challenge string `json:"challenge"`
	}
	require.NoError(t, c.postJSON(ctx, "/api/users/request_access", map[string]string{"username": "alice"}, &access))

	sealed, err := c.envelope.Seal([]byte(access.Challenge), "correct-horse")
	require.NoError(t, err)

	body := map[string]string{
		"username":           "alice",
		"nonce":              access.Nonce,
		"challengeEncrypted": sealed,
	}

	var created bool
	require.NoError(t, c.postJSON(ctx, "/api/users/create_user", body, &created))
	assert.True(t, created)

	// Completing the same registration again no longer matches
	// status=requested.
	err = c.postJSON(ctx, "/api/users/create_user", body, &created)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "REGISTER_ERROR", apiErr.Key)
}

func TestPostLifecycle(t *testing.T) {
	ctx := context.Background()
	server := setupServer(t)

	c := newTestClient(t, server.url)
	require.NoError(t, c.Register(ctx, "alice", "correct-horse", ""))
	_, err := c.Login(ctx, "alice", "correct-horse")
	require.NoError(t, err)

	first, err := c.CreatePost(ctx, "correct-horse", []byte("dear diary"))
	require.NoError(t, err)
	second, err := c.CreatePost(ctx, "correct-horse", []byte("second entry"))
	require.NoError(t, err)
	assert.NotEqual(t, first, second)

	posts, err := c.ListPosts(ctx, "correct-horse", "", 10)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "second entry", string(posts[0].Content))
	assert.Equal(t, "dear diary", string(posts[1].Content))

	// Cursor paging: everything strictly older than the newest post.
	older, err := c.ListPosts(ctx, "correct-horse", posts[0].ID, 10)
	require.NoError(t, err)
	require.Len(t, older, 1)
	assert.Equal(t, "dear diary", string(older[0].Content))

	single, err := c.GetPost(ctx, "correct-horse", first)
	require.NoError(t, err)
	assert.Equal(t, first, single.ID)
	assert.Equal(t, "dear diary", string(single.Content))

	require.NoError(t, c.DeletePost(ctx, first))

	remaining, err := c.ListPosts(ctx, "correct-horse", "", 10)
	require.NoError(t, err)
	require.Len(t, remaining, 1)

	// Another user can neither see nor delete alice's posts.
	other := newTestClient(t, server.url)
	require.NoError(t, other.Register(ctx, "bob", "bobs-secret", ""))
	_, err = other.Login(ctx, "bob", "bobs-secret")
	require.NoError(t, err)

	err = other.DeletePost(ctx, second)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)

	_, err = other.GetPost(ctx, "bobs-secret", second)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
}
