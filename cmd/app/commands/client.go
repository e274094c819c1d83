package commands

import (
	"context"
	"fmt"
	"net/http"

	"github.com/capsulen/capsulen/internal/client"
)

// NewAPIClient builds an API client with the configured key-derivation work
// factor. The iteration count must match the one used when the account's
// envelopes were sealed, or they will not open.
func NewAPIClient(serverURL, token string, kdfIterations int) *client.Client {
	apiClient := client.New(serverURL, http.DefaultClient, client.WithKDFIterations(kdfIterations))
	if token != "" {
		apiClient.SetToken(token)
	}
	return apiClient
}

// RunClientRegister drives the two round-trip registration flow against a
// running server. The passphrase is read interactively and never leaves the
// process unhashed.
func RunClientRegister(ctx context.Context, apiClient *client.Client, stdio IOTuple, username, inviteCode string) error {
	passphrase, err := readPassphrase(stdio, "Passphrase: ")
	if err != nil {
		return err
	}

	if err := apiClient.Register(ctx, username, passphrase, inviteCode); err != nil {
		return fmt.Errorf("registration failed: %w", err)
	}

	fmt.Fprintf(stdio.Writer, "Registered %s\n", username)
	return nil
}

// RunClientLogin completes the challenge-response login flow and prints the
// session token.
func RunClientLogin(ctx context.Context, apiClient *client.Client, stdio IOTuple, username string) error {
	passphrase, err := readPassphrase(stdio, "Passphrase: ")
	if err != nil {
		return err
	}

	token, err := apiClient.Login(ctx, username, passphrase)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	fmt.Fprintf(stdio.Writer, "%s\n", token)
	return nil
}

// RunClientCreatePost seals the content with the passphrase and stores it.
func RunClientCreatePost(ctx context.Context, apiClient *client.Client, stdio IOTuple, content string) error {
	passphrase, err := readPassphrase(stdio, "Passphrase: ")
	if err != nil {
		return err
	}

	id, err := apiClient.CreatePost(ctx, passphrase, []byte(content))
	if err != nil {
		return fmt.Errorf("failed to create post: %w", err)
	}

	fmt.Fprintf(stdio.Writer, "Created post %s\n", id)
	return nil
}

// RunClientListPosts fetches a page of posts and prints them decrypted.
func RunClientListPosts(ctx context.Context, apiClient *client.Client, stdio IOTuple, from string, limit int) error {
	passphrase, err := readPassphrase(stdio, "Passphrase: ")
	if err != nil {
		return err
	}

	posts, err := apiClient.ListPosts(ctx, passphrase, from, limit)
	if err != nil {
		return fmt.Errorf("failed to list posts: %w", err)
	}

	for _, post := range posts {
		fmt.Fprintf(stdio.Writer, "%s\t%s\t%s\n", post.ID, post.CreatedAt.Format("2006-01-02 15:04:05"), post.Content)
	}
	return nil
}

// RunClientDeletePost removes a post by its opaque identifier.
func RunClientDeletePost(ctx context.Context, apiClient *client.Client, stdio IOTuple, opaqueID string) error {
	if err := apiClient.DeletePost(ctx, opaqueID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}

	fmt.Fprintf(stdio.Writer, "Deleted post %s\n", opaqueID)
	return nil
}
