package middleware

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// LoggingMiddleware logs basic request info (request-id, method, path, status, duration).
func LoggingMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			rid := r.Header.Get("X-Request-Id")
			if rid == "" {
				rid = middleware.GetReqID(r.Context())
			}
			start := time.Now()
			rec := &statusRecorder{
				ResponseWriter: w,
				Status:         http.StatusOK, // default until changed
			}
			next.ServeHTTP(rec, r)

			logger.Info("request completed",
				zap.String("request_id", rid),
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", rec.Status),
				zap.Duration("duration", time.Since(start)),
			)
		}
		return http.HandlerFunc(fn)
	}
}
