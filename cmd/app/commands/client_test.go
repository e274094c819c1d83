package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/capsulen/capsulen/internal/client"
	"github.com/capsulen/capsulen/internal/crypto"
)

const clientTestIterations = 1000

func TestRunClientListPosts(t *testing.T) {
	ctx := context.Background()
	envelope := crypto.NewEnvelope(crypto.NewKeyDeriver(clientTestIterations))
	sealed, err := envelope.Seal([]byte("dear diary"), "pass")
	require.NoError(t, err)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/posts", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": "xK9mP2qW", "content": sealed, "createdAt": time.Now().UTC().Format(time.RFC3339)},
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	// The sealed envelope only opens when the configured iteration count
	// actually reaches the client's key deriver.
	apiClient := NewAPIClient(srv.URL, "session-token", clientTestIterations)

	var out bytes.Buffer
	stdio := IOTuple{Reader: strings.NewReader("pass\n"), Writer: &out}

	err = RunClientListPosts(ctx, apiClient, stdio, "", 0)
	require.NoError(t, err)
	require.Contains(t, out.String(), "xK9mP2qW")
	require.Contains(t, out.String(), "dear diary")
}

func TestRunClientDeletePost(t *testing.T) {
	ctx := context.Background()

	t.Run("Success", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("DELETE /api/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		apiClient := client.New(srv.URL, srv.Client())
		apiClient.SetToken("session-token")

		var out bytes.Buffer
		stdio := IOTuple{Reader: strings.NewReader(""), Writer: &out}

		err := RunClientDeletePost(ctx, apiClient, stdio, "xK9mP2qW")
		require.NoError(t, err)
		require.Equal(t, "Deleted post xK9mP2qW\n", out.String())
	})

	t.Run("Error_NotFound", func(t *testing.T) {
		mux := http.NewServeMux()
		mux.HandleFunc("DELETE /api/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "NOT_FOUND"})
		})
		srv := httptest.NewServer(mux)
		defer srv.Close()

		apiClient := client.New(srv.URL, srv.Client())
		apiClient.SetToken("session-token")

		var out bytes.Buffer
		stdio := IOTuple{Reader: strings.NewReader(""), Writer: &out}

		err := RunClientDeletePost(ctx, apiClient, stdio, "missing")
		require.Error(t, err)
		require.Contains(t, err.Error(), "NOT_FOUND")
	})
}
