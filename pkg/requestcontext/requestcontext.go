// Package requestcontext carries per-request metadata (request id, client
// address, user agent) through context.Context.
package requestcontext

import "context"

type (
	requestIDKey struct{}
	clientIPKey  struct{}
	userAgentKey struct{}
)

// WithRequestID stores the correlation id for the request.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns the correlation id, or "" when none was set.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithClientMetadata stores the resolved client IP and User-Agent.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, clientIPKey{}, clientIP)
	return context.WithValue(ctx, userAgentKey{}, userAgent)
}

// ClientIP returns the resolved client IP, or "" when unknown.
func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(clientIPKey{}).(string); ok {
		return ip
	}
	return ""
}

// UserAgent returns the caller's User-Agent header value.
func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(userAgentKey{}).(string); ok {
		return ua
	}
	return ""
}
