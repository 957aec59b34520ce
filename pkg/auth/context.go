package auth

import (
	"context"
)

type contextKey string

const claimsKey contextKey = "jwt_claims"

// AddClaimsToContext stores validated claims in ctx.
func AddClaimsToContext(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

// ClaimsFromContext returns the claims stored by RequireToken.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(*Claims)
	return claims, ok && claims != nil
}

// SubjectFromContext returns the token subject, or "anonymous" when the
// request was not authenticated.
func SubjectFromContext(ctx context.Context) string {
	if claims, ok := ClaimsFromContext(ctx); ok && claims.Subject != "" {
		return claims.Subject
	}
	return "anonymous"
}
