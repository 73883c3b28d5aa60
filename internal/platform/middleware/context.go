package middleware

import "context"

type contextKeyRequestID struct{}
type contextKeyUserID struct{}
type contextKeyUserAgent struct{}

var (
	ContextKeyRequestID = contextKeyRequestID{}
	ContextKeyUserID    = contextKeyUserID{}
	ContextKeyUserAgent = contextKeyUserAgent{}
)

// GetRequestID retrieves the request id injected by the RequestID middleware.
func GetRequestID(ctx context.Context) string {
	id, ok := ctx.Value(ContextKeyRequestID).(string)
	if !ok {
		return ""
	}
	return id
}

// GetUserID retrieves the authenticated user id, or "" for guest callers.
// This is the "verified caller identity or none" boundary: everything below
// transport only ever sees the resolved id.
func GetUserID(ctx context.Context) string {
	id, ok := ctx.Value(ContextKeyUserID).(string)
	if !ok {
		return ""
	}
	return id
}

// WithUserID returns a context carrying the given user id. Exported for
// handler tests that bypass the auth middleware.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, ContextKeyUserID, userID)
}

// GetUserAgent retrieves the raw User-Agent captured by the UserAgent
// middleware.
func GetUserAgent(ctx context.Context) string {
	ua, ok := ctx.Value(ContextKeyUserAgent).(string)
	if !ok {
		return ""
	}
	return ua
}
