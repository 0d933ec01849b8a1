package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

// StatusRecorder wraps an http.ResponseWriter and remembers the status code.
type StatusRecorder struct {
	http.ResponseWriter
	Status  int
	written bool
}

// NewStatusRecorder wraps w. The status is 200 until WriteHeader says otherwise.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	return &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

// WriteHeader records code before delegating.
func (sr *StatusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.Status = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write marks the response as started with 200 if WriteHeader was not called.
func (sr *StatusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// WithRequestLogging logs one line per request with its method, path,
// status, duration and session. 4xx responses are logged at warn level and
// 5xx at error level.
func WithRequestLogging(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := NewStatusRecorder(w)

			next.ServeHTTP(rec, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.Status),
				zap.Duration("duration", time.Since(start)),
			}
			if sid := GetSessionIDFromContext(r.Context()); sid != "" {
				fields = append(fields, zap.String("session", sid))
			}

			switch {
			case rec.Status >= 500:
				logger.Error("request", fields...)
			case rec.Status >= 400:
				logger.Warn("request", fields...)
			default:
				logger.Info("request", fields...)
			}
		})
	}
}
