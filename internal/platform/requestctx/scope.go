// Package requestctx carries request-scoped identity through context.
package requestctx

import "context"

type scopeIDContextKey struct{}

// WithScopeID stores the client storage scope id in context.
func WithScopeID(ctx context.Context, scopeID string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, scopeIDContextKey{}, scopeID)
}

// ScopeIDFromContext returns the scope id stored in context, or "-" when
// none is set so log fields stay aligned.
func ScopeIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return "-"
	}
	value, _ := ctx.Value(scopeIDContextKey{}).(string)
	if value == "" {
		return "-"
	}
	return value
}
