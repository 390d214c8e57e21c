package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"content-gateway/middleware/ratelimit/infra"
)

type ratelimitDebug struct {
	Stats       infra.StatsSnapshot `json:"stats"`
	ActiveKeys  map[string]int      `json:"activeWindows"`
	InFlight    int                 `json:"inFlight"`
	Concurrency int                 `json:"concurrencyMax"`
}

// OpsOptions alimenta o listener operacional.
type OpsOptions struct {
	MetricsPath string
	Gatherer    prometheus.Gatherer
	Stats       *infra.MemoryStatsStore
	Windows     map[string]*infra.WindowStore
	Pool        *infra.ChanPool
}

// OpsHandler serve /metrics (Prometheus) e /debug/ratelimit (contadores em memória).
// Fica num listener separado, fora das camadas de rate limit.
func OpsHandler(opts OpsOptions) http.Handler {
	if opts.MetricsPath == "" {
		opts.MetricsPath = "/metrics"
	}
	if opts.Gatherer == nil {
		opts.Gatherer = prometheus.DefaultGatherer
	}

	mux := http.NewServeMux()
	mux.Handle(opts.MetricsPath, promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/debug/ratelimit", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
			return
		}
		out := ratelimitDebug{ActiveKeys: make(map[string]int, len(opts.Windows))}
		if opts.Stats != nil {
			out.Stats = opts.Stats.Snapshot()
		}
		for layer, ws := range opts.Windows {
			out.ActiveKeys[layer] = ws.Len()
		}
		if opts.Pool != nil {
			out.InFlight = opts.Pool.InFlight()
			out.Concurrency = opts.Pool.Capacity()
		}
		writeJSON(w, http.StatusOK, out)
	})
	mux.HandleFunc(HealthPath, health)
	return mux
}
