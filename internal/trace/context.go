package trace

import "context"

type ctxKey struct{}

type parentKey struct{}

// FromContext extracts the Tracer from context, Nop when absent.
func FromContext(ctx context.Context) Tracer {
	if ctx == nil {
		return Nop
	}
	if t, ok := ctx.Value(ctxKey{}).(Tracer); ok {
		return t
	}
	return Nop
}

// WithTracer attaches a Tracer to context.
func WithTracer(ctx context.Context, t Tracer) context.Context {
	if t == nil {
		t = Nop
	}
	return context.WithValue(ctx, ctxKey{}, t)
}

// WithParent records spanID as the parent for spans begun under ctx.
func WithParent(ctx context.Context, spanID uint64) context.Context {
	return context.WithValue(ctx, parentKey{}, spanID)
}

// ParentFrom returns the span recorded by WithParent, 0 for a root.
func ParentFrom(ctx context.Context) uint64 {
	if ctx == nil {
		return 0
	}
	id, _ := ctx.Value(parentKey{}).(uint64)
	return id
}
