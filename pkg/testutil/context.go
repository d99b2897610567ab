package testutil

import (
	"context"
	"net/http"

	id "cipherledger/pkg/domain"
	"cipherledger/pkg/requestcontext"
)

// WithCaller adds a caller identity to the request context.
// This simulates what RequireAction does for an authorized request.
func WithCaller(req *http.Request, caller string) *http.Request {
	ctx := requestcontext.WithCaller(req.Context(), id.Identity(caller))
	return req.WithContext(ctx)
}

// WithContextValue adds an arbitrary key-value pair to the request context.
func WithContextValue(req *http.Request, key, value any) *http.Request {
	ctx := context.WithValue(req.Context(), key, value)
	return req.WithContext(ctx)
}

// WithBearer sets the Authorization header.
func WithBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}
