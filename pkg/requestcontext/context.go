// Package requestcontext carries per-request identity through context.Context
// so handlers and services can log and audit without threading extra arguments.
package requestcontext

import "context"

type contextKey string

const (
	clientIDKey  contextKey = "clientID"
	requestIDKey contextKey = "requestID"
)

// WithClientID returns a context carrying the authenticated client id.
func WithClientID(ctx context.Context, clientID string) context.Context {
	return context.WithValue(ctx, clientIDKey, clientID)
}

// ClientID returns the client id stored in ctx, or "" when absent.
func ClientID(ctx context.Context) string {
	v, _ := ctx.Value(clientIDKey).(string)
	return v
}

// WithRequestID returns a context carrying the request correlation id.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestID returns the request correlation id stored in ctx, or "" when absent.
func RequestID(ctx context.Context) string {
	v, _ := ctx.Value(requestIDKey).(string)
	return v
}
