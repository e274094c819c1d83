// Package client implements the client side of the challenge-response
// protocol. All passphrase-derived key material stays in this package: the
// server only ever sees sealed envelopes and recovered challenge plaintext.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/capsulen/capsulen/internal/crypto"
	apperrors "github.com/capsulen/capsulen/internal/errors"
)

// APIError is a server-reported failure, carrying the terse error key the
// server returned.
type APIError struct {
	StatusCode int
	Key        string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.StatusCode, e.Key)
}

// Post is the client-side view of a post after the content envelope has been
// opened.
type Post struct {
	ID        string
	Content   []byte
	CreatedAt time.Time
}

// Client talks to the server API and performs all cryptographic operations
// locally.
type Client struct {
	baseURL    string
	httpClient *http.Client
	envelope   *crypto.Envelope
	token      string
}

// Option configures a Client.
type Option func(*Client)

// WithKDFIterations overrides the key-derivation work factor. Lowering it
// weakens offline brute-force resistance of everything sealed by this client.
func WithKDFIterations(iterations int) Option {
	return func(c *Client) {
		c.envelope = crypto.NewEnvelope(crypto.NewKeyDeriver(iterations))
	}
}

// New creates a Client for the given base URL.
func New(baseURL string, httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		envelope:   crypto.NewEnvelope(crypto.NewKeyDeriver(0)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Token returns the session token obtained by Login, empty before then.
func (c *Client) Token() string {
	return c.token
}

// SetToken installs a previously obtained session token.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Register runs both registration round trips: request access, seal the
// returned challenge under the passphrase, and complete the registration.
// The passphrase never leaves the process.
func (c *Client) Register(ctx context.Context, username, passphrase, inviteCode string) error {
	var access struct {
		Nonce     string `json:"nonce"`
		Challenge string `json:"challenge"`
	}
	err := c.postJSON(ctx, "/api/users/request_access", map[string]string{
		"username":   username,
		"inviteCode": inviteCode,
	}, &access)
	if err != nil {
		return err
	}

	sealed, err := c.envelope.Seal([]byte(access.Challenge), passphrase)
	if err != nil {
		return err
	}

	var created bool
	err = c.postJSON(ctx, "/api/users/create_user", map[string]string{
		"username":           username,
		"nonce":              access.Nonce,
		"challengeEncrypted": sealed,
	}, &created)
	if err != nil {
		return err
	}
	if !created {
		return apperrors.New("registration was not confirmed")
	}

	return nil
}

// Login runs both login round trips: fetch the stored envelope, open it with
// the passphrase, and submit the recovered challenge. A wrong passphrase
// fails locally with crypto.ErrDecrypt; nothing is submitted in that case.
func (c *Client) Login(ctx context.Context, username, passphrase string) (string, error) {
	var sealed string
	err := c.postJSON(ctx, "/api/users/request_login", map[string]string{
		"username": username,
	}, &sealed)
	if err != nil {
		return "", err
	}

	challenge, err := c.envelope.Open(sealed, passphrase)
	if err != nil {
		return "", err
	}

	var token string
	err = c.postJSON(ctx, "/api/users/login", map[string]string{
		"username":  username,
		"challenge": string(challenge),
	}, &token)
	if err != nil {
		return "", err
	}

	c.token = token
	return token, nil
}

// CreatePost seals the content under the passphrase and stores the envelope.
// Returns the new post's opaque id.
func (c *Client) CreatePost(ctx context.Context, passphrase string, content []byte) (string, error) {
	sealed, err := c.envelope.Seal(content, passphrase)
	if err != nil {
		return "", err
	}

	var output struct {
		ID string `json:"id"`
	}
	err = c.postJSON(ctx, "/api/posts", map[string]string{"content": sealed}, &output)
	if err != nil {
		return "", err
	}

	return output.ID, nil
}

// ListPosts fetches a page of posts and opens each content envelope locally.
// from is an optional opaque cursor returned by a previous page.
func (c *Client) ListPosts(ctx context.Context, passphrase, from string, limit int) ([]Post, error) {
	query := url.Values{}
	if from != "" {
		query.Set("from", from)
	}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}

	path := "/api/posts"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}

	var outputs []struct {
		ID        string    `json:"id"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"createdAt"`
	}
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &outputs); err != nil {
		return nil, err
	}

	posts := make([]Post, 0, len(outputs))
	for _, output := range outputs {
		content, err := c.envelope.Open(output.Content, passphrase)
		if err != nil {
			return nil, err
		}
		posts = append(posts, Post{ID: output.ID, Content: content, CreatedAt: output.CreatedAt})
	}

	return posts, nil
}

// GetPost fetches a single post by opaque id and opens its content envelope
// locally.
func (c *Client) GetPost(ctx context.Context, passphrase, opaqueID string) (*Post, error) {
	var output struct {
		ID        string    `json:"id"`
		Content   string    `json:"content"`
		CreatedAt time.Time `json:"createdAt"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/posts/"+opaqueID, nil, &output); err != nil {
		return nil, err
	}

	content, err := c.envelope.Open(output.Content, passphrase)
	if err != nil {
		return nil, err
	}

	return &Post{ID: output.ID, Content: content, CreatedAt: output.CreatedAt}, nil
}

// DeletePost removes a post by opaque id.
func (c *Client) DeletePost(ctx context.Context, opaqueID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/posts/"+opaqueID, nil, nil)
}

func (c *Client) postJSON(ctx context.Context, path string, body, out any) error {
	return c.doJSON(ctx, http.MethodPost, path, body, out)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return apperrors.Wrap(err, "failed to encode request body")
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return apperrors.Wrap(err, "failed to build request")
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.Wrap(err, "request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		var serverErr struct {
			Error string `json:"error"`
		}
		if decodeErr := json.NewDecoder(resp.Body).Decode(&serverErr); decodeErr != nil || serverErr.Error == "" {
			serverErr.Error = http.StatusText(resp.StatusCode)
		}
		return &APIError{StatusCode: resp.StatusCode, Key: serverErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return apperrors.Wrap(err, "failed to decode response body")
	}

	return nil
}
