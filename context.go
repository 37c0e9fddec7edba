package threadid

import "context"

type contextKey struct{}

// NewContext returns a copy of ctx carrying t. Code holding the context can
// reach the thread's cached ids without a registry lookup.
func NewContext(ctx context.Context, t *Thread) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the thread stored by NewContext.
func FromContext(ctx context.Context) (*Thread, bool) {
	t, ok := ctx.Value(contextKey{}).(*Thread)
	return t, ok && t != nil
}
