package httpx

import (
	"net/http"

	"github.com/google/uuid"

	"content-gateway/observability/logger"
)

const RequestIDHeader = "X-Request-ID"

// RequestID reaproveita o X-Request-ID recebido ou gera um UUID, e o coloca
// no contexto do logger e na resposta.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}

		w.Header().Set(RequestIDHeader, id)
		ctx := logger.WithContext(r.Context(), logger.RequestIDKey, id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
