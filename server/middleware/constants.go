package middleware

type contextKey string

// RequestIDKey is the context key carrying the per-request UUID.
const RequestIDKey contextKey = "request_id"

// GetRequestID returns the request ID stored in ctx values by the RequestID
// middleware, or "" when absent.
func GetRequestID(values interface{ Value(any) any }) string {
	if id, ok := values.Value(RequestIDKey).(string); ok {
		return id
	}
	return ""
}
