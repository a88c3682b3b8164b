package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/membergate/api/internal/pkg/id"
)

const traceIDKey contextKey = "trace_id"

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Trace assigns every request a trace identifier, propagates it through the
// context and logs the request on completion. Requests slower than
// slowThreshold are logged at warn.
func Trace(slowThreshold time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			traceID := id.New()
			ctx := context.WithValue(r.Context(), traceIDKey, traceID)
			w.Header().Set("X-Trace-Id", traceID)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(rec, r.WithContext(ctx))
			duration := time.Since(start)

			attrs := []any{
				"trace_id", traceID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"duration_ms", duration.Milliseconds(),
			}
			if duration >= slowThreshold {
				slog.Warn("slow request", attrs...)
			} else {
				slog.Info("request", attrs...)
			}
		})
	}
}

// TraceIDFromContext returns the request's trace identifier, or "" outside a
// traced request.
func TraceIDFromContext(ctx context.Context) string {
	traceID, _ := ctx.Value(traceIDKey).(string)
	return traceID
}
