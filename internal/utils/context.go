package contextutils

import "context"

type contextKey string

const sessionHashKey contextKey = "session_hash"

// WithSessionHash returns a context carrying the hashed session id of the caller
func WithSessionHash(ctx context.Context, hash string) context.Context {
	return context.WithValue(ctx, sessionHashKey, hash)
}

// SessionHashFromContext returns the hashed session id, or "" when none was set
func SessionHashFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionHashKey).(string); ok {
		return v
	}
	return ""
}
