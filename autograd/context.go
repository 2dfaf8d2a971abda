package autograd

import (
	"context"

	"github.com/csotherden/nova/internal/autograd/tlocal"
)

// WithEngine attaches eng to ctx, the idiomatic Go substitute for a
// thread-local engine context.
func WithEngine(ctx context.Context, eng *Engine) context.Context {
	return tlocal.With(ctx, eng)
}

// FromContext retrieves the engine attached by WithEngine, if any.
func FromContext(ctx context.Context) (*Engine, bool) {
	v, ok := tlocal.From(ctx)
	if !ok {
		return nil, false
	}
	eng, ok := v.(*Engine)
	return eng, ok
}

var tokens tlocal.Registry

// RegisterEngine associates eng with token for call sites that don't
// thread a context.Context, as a package-level fallback alongside the
// context-keyed handle above.
func RegisterEngine(token any, eng *Engine) { tokens.Store(token, eng) }

// EngineByToken retrieves the engine registered under token.
func EngineByToken(token any) (*Engine, bool) {
	v, ok := tokens.Load(token)
	if !ok {
		return nil, false
	}
	eng, ok := v.(*Engine)
	return eng, ok
}

// ForgetToken removes a prior RegisterEngine association.
func ForgetToken(token any) { tokens.Delete(token) }
