// Package requestcontext provides HTTP-independent context accessors for
// request-scoped values. Values are set by middleware and consumed by
// services; keeping the package free of net/http lets services import
// only what they need.
package requestcontext

import (
	"context"

	id "locregistry/pkg/domain"
)

type (
	originKey    struct{}
	requestIDKey struct{}
)

// Exported context keys for tests that need context.WithValue directly.
var (
	ContextKeyOrigin    = originKey{}
	ContextKeyRequestID = requestIDKey{}
)

// Origin retrieves the resolved caller origin from the context. Returns
// the zero Origin (neither root nor signed) if authentication middleware
// did not run.
func Origin(ctx context.Context) id.Origin {
	if o, ok := ctx.Value(ContextKeyOrigin).(id.Origin); ok {
		return o
	}
	return id.Origin{}
}

// WithOrigin injects a caller origin into the context.
func WithOrigin(ctx context.Context, origin id.Origin) context.Context {
	return context.WithValue(ctx, ContextKeyOrigin, origin)
}

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
