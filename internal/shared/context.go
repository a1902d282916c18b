package shared

import (
	"context"
	"strings"
)

type (
	sessionContextKey struct{}
	actorContextKey   struct{}
	grantsContextKey  struct{}
)

// ContextWithSession attaches the cookie session loaded by the session middleware.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext returns the request session or nil for bearer and
// anonymous requests.
func SessionFromContext(ctx context.Context) *Session {
	if ctx == nil {
		return nil
	}
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithActor returns a child context whose unit of work is performed by
// principalID. An empty id masks any outer actor.
func ContextWithActor(ctx context.Context, principalID string) context.Context {
	return context.WithValue(ctx, actorContextKey{}, strings.TrimSpace(principalID))
}

// ActorFromContext reports the principal performing the current unit of work.
func ActorFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, _ := ctx.Value(actorContextKey{}).(string)
	return id, id != ""
}

// RunWithActor runs fn with principalID as the ambient actor. The scope ends
// when fn returns; concurrent calls never observe each other's actor.
func RunWithActor(ctx context.Context, principalID string, fn func(ctx context.Context) error) error {
	return fn(ContextWithActor(ctx, principalID))
}

// ContextWithGrants stores the principal's permission key snapshot.
func ContextWithGrants(ctx context.Context, keys []string) context.Context {
	snapshot := make([]string, len(keys))
	copy(snapshot, keys)
	return context.WithValue(ctx, grantsContextKey{}, snapshot)
}

// GrantsFromContext returns the permission key snapshot, or nil when the
// request carries none.
func GrantsFromContext(ctx context.Context) ([]string, bool) {
	if ctx == nil {
		return nil, false
	}
	keys, ok := ctx.Value(grantsContextKey{}).([]string)
	return keys, ok
}
