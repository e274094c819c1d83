package http

import "context"

type contextKey int

const usernameKey contextKey = iota

// WithUsername returns a copy of ctx carrying the authenticated username.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, usernameKey, username)
}

// GetUsername returns the authenticated username stored by the auth
// middleware, or false when the request was not authenticated.
func GetUsername(ctx context.Context) (string, bool) {
	username, ok := ctx.Value(usernameKey).(string)
	return username, ok
}
