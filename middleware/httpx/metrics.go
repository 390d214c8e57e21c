package httpx

import (
	"net/http"
	"strconv"
	"time"

	"content-gateway/observability/metrics"
)

// Metrics registra contagem, duração e tamanho de resposta por rota.
//
// routeOf mapeia a request para o rótulo "path"; nil usa o padrão casado pelo ServeMux
// (ou "unmatched"), mantendo a cardinalidade baixa.
func Metrics(routeOf func(*http.Request) string) func(http.Handler) http.Handler {
	if routeOf == nil {
		routeOf = muxPattern
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := wrap(w)

			next.ServeHTTP(sw, r)

			path := routeOf(r)
			status := strconv.Itoa(sw.Status())
			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
			if sw.bytes > 0 {
				metrics.HTTPResponseSize.WithLabelValues(r.Method, path).Observe(float64(sw.bytes))
			}
		})
	}
}

func muxPattern(r *http.Request) string {
	if r.Pattern != "" {
		return r.Pattern
	}
	return "unmatched"
}
