package httpx

import (
	"net/http"
	"time"

	"content-gateway/observability/logger"
)

func AccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := wrap(w)

		next.ServeHTTP(sw, r)

		status := sw.Status()
		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", status,
			"bytes", sw.bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"remote", r.RemoteAddr,
		}
		switch {
		case status >= 500:
			logger.Warn(r.Context(), "http request failed", args...)
		default:
			logger.Info(r.Context(), "http request", args...)
		}
	})
}
