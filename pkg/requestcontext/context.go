// Package requestcontext provides HTTP-independent context accessors for request-scoped values.
//
// Middleware sets these values; guards, handlers and services read them without
// importing net/http code.
//
// Usage in services (read values):
//
//	principalID := requestcontext.PrincipalID(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithPrincipal(ctx, principalID, "Ada")
//	ctx = requestcontext.WithTime(ctx, fixedTime)
package requestcontext

import (
	"context"
	"time"

	id "clubportal/pkg/domain"
)

type (
	principalIDKey struct{}
	displayNameKey struct{}
	roleHintKey    struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeyPrincipalID = principalIDKey{}
	ContextKeyDisplayName = displayNameKey{}
	ContextKeyRoleHint    = roleHintKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Principal
// -----------------------------------------------------------------------------

// PrincipalID retrieves the authenticated principal ID from the context.
// Returns the zero value (nil UUID) if not set.
func PrincipalID(ctx context.Context) id.PrincipalID {
	if principalID, ok := ctx.Value(ContextKeyPrincipalID).(id.PrincipalID); ok {
		return principalID
	}
	return id.PrincipalID{}
}

// DisplayName retrieves the principal's display name.
func DisplayName(ctx context.Context) string {
	if name, ok := ctx.Value(ContextKeyDisplayName).(string); ok {
		return name
	}
	return ""
}

// WithPrincipal injects the authenticated principal into the context.
func WithPrincipal(ctx context.Context, principalID id.PrincipalID, displayName string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyPrincipalID, principalID)
	return context.WithValue(ctx, ContextKeyDisplayName, displayName)
}

// IsAuthenticated reports whether a non-nil principal is present.
func IsAuthenticated(ctx context.Context) bool {
	return !PrincipalID(ctx).IsNil()
}

// RoleHint retrieves the role claim carried by the session token. It is a display
// hint only; access decisions always go to the role authority.
func RoleHint(ctx context.Context) string {
	if hint, ok := ctx.Value(ContextKeyRoleHint).(string); ok {
		return hint
	}
	return ""
}

// WithRoleHint injects the token role claim.
func WithRoleHint(ctx context.Context, hint string) context.Context {
	return context.WithValue(ctx, ContextKeyRoleHint, hint)
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the request ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

// WithRequestID injects a request ID into the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (CLI, workers, tests).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
