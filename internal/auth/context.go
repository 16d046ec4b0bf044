package auth

import "context"

type contextKey string

const claimsKey contextKey = "claims"

// WithClaims returns a context carrying the authenticated claims.
func WithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, c)
}

// ClaimsFromContext returns claims from the context, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(claimsKey).(*Claims)
	return c
}
