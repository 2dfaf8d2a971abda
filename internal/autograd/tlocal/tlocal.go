// Package tlocal is a stand-in for a thread-local engine handle.
// Goroutines have no exposed identity to key a real thread-local off,
// so this offers two idiomatic substitutes instead: a
// context.Context-keyed handle for call sites that thread a context,
// and a token-keyed registry (a plain sync.Map) for call sites that
// don't.
package tlocal

import (
	"context"
	"sync"
)

type ctxKey struct{}

// With attaches v (an *autograd.Engine in practice) to ctx.
func With(ctx context.Context, v any) context.Context {
	return context.WithValue(ctx, ctxKey{}, v)
}

// From retrieves the value attached by With, if any.
func From(ctx context.Context) (any, bool) {
	v := ctx.Value(ctxKey{})
	return v, v != nil
}

// Registry is the token-keyed fallback for goroutines that don't carry a
// context.Context to the call site.
type Registry struct {
	m sync.Map
}

func (r *Registry) Store(token, v any) { r.m.Store(token, v) }

func (r *Registry) Load(token any) (any, bool) { return r.m.Load(token) }

func (r *Registry) Delete(token any) { r.m.Delete(token) }
