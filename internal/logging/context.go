// internal/logging/context.go
package logging

import "context"

// routerCtxKey is the context key for Router.
type routerCtxKey struct{}

// WithRouter stores router in context.
func WithRouter(ctx context.Context, r *Router) context.Context {
	return context.WithValue(ctx, routerCtxKey{}, r)
}

// FromContext retrieves the router from context.
// Returns Default() if none was stored.
func FromContext(ctx context.Context) *Router {
	if r, ok := ctx.Value(routerCtxKey{}).(*Router); ok && r != nil {
		return r
	}
	return Default()
}
