package httpapi

import "context"

type adminKey struct{}

// WithAdmin stores the authenticated admin username in request context.
func WithAdmin(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, adminKey{}, username)
}

// AdminFromContext returns the authenticated admin username, if any.
func AdminFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(adminKey{}).(string)
	return v, ok && v != ""
}
