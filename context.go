package goSession

import "context"

type storeContextKey struct{}

// WithStore makes s the session scope for everything derived from ctx.
func WithStore(ctx context.Context, s *Store) context.Context {
	return context.WithValue(ctx, storeContextKey{}, s)
}

// StoreFromContext returns the Store injected with WithStore.
func StoreFromContext(ctx context.Context) (*Store, bool) {
	if ctx == nil {
		return nil, false
	}
	s, _ := ctx.Value(storeContextKey{}).(*Store)
	return s, s != nil
}

// Handle is the consumer view of a Store: the state at the time of Use plus the operation
// bindings.
type Handle struct {
	Session
	store *Store
}

func (h Handle) Login(ctx context.Context, provider Provider) { h.store.Login(ctx, provider) }
func (h Handle) Logout(ctx context.Context)                   { h.store.Logout(ctx) }
func (h Handle) RefreshToken(ctx context.Context) error       { return h.store.RefreshToken(ctx) }

// Store returns the Store behind h.
func (h Handle) Store() *Store { return h.store }

// Use resolves the session scope from ctx. It fails with ErrNoSessionScope when no Store
// was injected, which is a wiring mistake rather than a runtime condition.
func Use(ctx context.Context) (Handle, error) {
	s, ok := StoreFromContext(ctx)
	if !ok {
		return Handle{}, ErrNoSessionScope
	}
	return Handle{Session: s.Snapshot(), store: s}, nil
}

// MustUse is Use for code that cannot run without a session scope. It panics with
// ErrNoSessionScope otherwise.
func MustUse(ctx context.Context) Handle {
	h, err := Use(ctx)
	if err != nil {
		panic(err)
	}
	return h
}
