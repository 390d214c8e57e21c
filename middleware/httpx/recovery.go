package httpx

import (
	"encoding/json"
	"fmt"
	"net/http"
	"runtime/debug"

	"content-gateway/observability/logger"
)

// Recovery converte panic em 500 {error}.
func Recovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sw := wrap(w)
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}
			if rec == http.ErrAbortHandler {
				panic(rec)
			}

			logger.Error(r.Context(), "panic recovered", fmt.Errorf("%v", rec),
				"stack", string(debug.Stack()),
				"path", r.URL.Path,
				"method", r.Method,
			)

			if sw.wroteHeader() {
				return
			}
			sw.Header().Set("Content-Type", "application/json")
			sw.WriteHeader(http.StatusInternalServerError)
			_ = json.NewEncoder(sw).Encode(map[string]string{"error": "internal server error"})
		}()

		next.ServeHTTP(sw, r)
	})
}
