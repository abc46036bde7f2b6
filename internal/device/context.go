// Package device carries the calling device's identity through a request.
// A device id is an opaque string chosen by the client (a browser profile or
// app install). It is a local identity, not an authenticated user.
package device

import "context"

type contextKey struct{}

// WithID returns a copy of ctx that carries the device id.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFrom returns the device id stored in ctx, if any.
func IDFrom(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}
