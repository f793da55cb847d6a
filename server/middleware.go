package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/onnwee/boot/telemetry"
)

// withCorrelation tags each request with a correlation id (honoring an
// incoming X-Correlation-Id header), echoes it in the response, and logs the
// request at debug level.
func withCorrelation(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		corr := r.Header.Get("X-Correlation-Id")
		if corr == "" {
			corr = uuid.NewString()
		}
		ctx := telemetry.WithCorrelation(r.Context(), corr)
		w.Header().Set("X-Correlation-Id", corr)

		start := time.Now()
		next.ServeHTTP(w, r.WithContext(ctx))
		slog.Debug("http request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("correlation_id", corr),
			slog.Duration("duration", time.Since(start)))
	})
}
