package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/travito/travito"
)

// statusRecorder wraps http.ResponseWriter to remember the status code.
type statusRecorder struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (sr *statusRecorder) WriteHeader(code int) {
	if !sr.written {
		sr.statusCode = code
		sr.written = true
	}
	sr.ResponseWriter.WriteHeader(code)
}

// Write records an implicit 200 if WriteHeader was not called.
func (sr *statusRecorder) Write(b []byte) (int, error) {
	if !sr.written {
		sr.statusCode = http.StatusOK
		sr.written = true
	}
	return sr.ResponseWriter.Write(b)
}

// Unwrap lets http.ResponseController reach the underlying writer.
func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// RequestObserver receives every served request, e.g. a metrics collector.
type RequestObserver interface {
	RecordHTTPRequest(method string, status int, duration time.Duration)
}

// NewLoggingMiddleware logs one structured line per request with method,
// path, status, duration_ms and user_id (when signed in). observer may be nil.
func NewLoggingMiddleware(logger *slog.Logger, observer RequestObserver) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rec := &statusRecorder{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rec, r)

			duration := time.Since(start)
			if observer != nil {
				observer.RecordHTTPRequest(r.Method, rec.statusCode, duration)
			}

			args := []any{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", rec.statusCode),
				slog.Float64("duration_ms", float64(duration.Nanoseconds())/float64(time.Millisecond)),
			}
			if s := travito.SessionFromContext(r.Context()); s != nil {
				args = append(args, slog.String("user_id", s.Subject))
			}

			level := slog.LevelInfo
			if rec.statusCode >= 500 {
				level = slog.LevelError
			} else if rec.statusCode >= 400 {
				level = slog.LevelWarn
			}

			logger.Log(r.Context(), level, "http_request", args...)
		})
	}
}
