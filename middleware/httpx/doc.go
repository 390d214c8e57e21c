// Package httpx reúne os middlewares transversais (net/http) do gateway:
// request id, recovery, access log, métricas, tracing e CORS.
package httpx

import "net/http"

// Chain aplica os middlewares na ordem dada: o primeiro é o mais externo.
func Chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}
