package middleware

import (
	"net/http"
	"time"

	"pressroom/pkg/logger"

	"github.com/google/uuid"
)

// RequestID tags every request with an id (honoring an inbound X-Request-ID)
// and logs the request line with its duration.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)

		start := time.Now()
		next.ServeHTTP(w, r)

		logger.Sugar.Infow("request",
			"id", id,
			"method", r.Method,
			"path", r.URL.Path,
			"duration", time.Since(start).String(),
		)
	})
}
