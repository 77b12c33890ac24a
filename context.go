package console

import (
	"context"

	"github.com/Reales09/reserve-sub002/session"
)

type sessionStoreContextKey struct{}

// WithSessionStore binds store to ctx. Console operations called with the
// returned context read and write that store instead of the Console's
// default one; the HTTP middleware uses it to bind the per-request cookie
// or Redis session.
func WithSessionStore(ctx context.Context, store *session.Store) context.Context {
	return context.WithValue(ctx, sessionStoreContextKey{}, store)
}

// SessionStoreFromContext returns the store bound by [WithSessionStore].
func SessionStoreFromContext(ctx context.Context) (*session.Store, bool) {
	if ctx == nil {
		return nil, false
	}
	store, _ := ctx.Value(sessionStoreContextKey{}).(*session.Store)
	return store, store != nil
}
