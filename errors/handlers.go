package errors

import (
	"net/http"
	"runtime/debug"

	"go.uber.org/zap"
)

// ErrorHandler wraps a handler with panic recovery that logs the stack
// and answers with a structured 500.
func ErrorHandler(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("panic recovered",
						zap.Any("error", err),
						zap.ByteString("stacktrace", debug.Stack()),
						zap.String("request_id", w.Header().Get("X-Request-ID")),
					)
					WriteError(w, NewInternalError(w.Header().Get("X-Request-ID"), nil))
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// LogError logs err with request context, unpacking BellhopError fields
// when available.
func LogError(logger *zap.Logger, err error, requestID string) {
	var be *BellhopError
	if As(err, &be) {
		logger.Error("request error",
			zap.String("error_type", string(be.Type)),
			zap.String("message", be.Message),
			zap.Int("code", be.Code),
			zap.String("request_id", requestID),
			zap.Any("details", be.Details),
		)
		return
	}
	logger.Error("unexpected error",
		zap.Error(err),
		zap.String("request_id", requestID),
	)
}
