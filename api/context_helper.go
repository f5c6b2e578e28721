package api

import (
	"context"
	"time"

	"github.com/linesmerrill/legal-case-api/casework"
)

// QueryTimeout is the default timeout for database queries
const QueryTimeout = 10 * time.Second

// WithQueryTimeout creates a context with query timeout
func WithQueryTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return context.WithTimeout(parent, QueryTimeout)
}

type principalContextKey struct{}

// WithPrincipal stores the authenticated caller on the context
func WithPrincipal(ctx context.Context, p casework.Principal) context.Context {
	return context.WithValue(ctx, principalContextKey{}, p)
}

// PrincipalFrom returns the caller stored by the auth middleware
func PrincipalFrom(ctx context.Context) (casework.Principal, bool) {
	p, ok := ctx.Value(principalContextKey{}).(casework.Principal)
	return p, ok && p.ID != ""
}
