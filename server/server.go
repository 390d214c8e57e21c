// Package server monta as rotas do gateway e a ordem das camadas.
package server

import (
	"net/http"
	"time"

	"content-gateway/config"
	"content-gateway/middleware/httpx"
	"content-gateway/middleware/ratelimit"
	"content-gateway/middleware/ratelimit/application"
	"content-gateway/middleware/ratelimit/domain"
)

const (
	GeneratePath = "/api/generate"
	HealthPath   = "/health"
)

// Options reúne as dependências das rotas.
type Options struct {
	Generator Generator

	Global ratelimit.Options
	Tiered ratelimit.Options

	Concurrency ratelimit.ConcurrencyOptions
	CORS        httpx.CORSConfig
	// Tracing liga o span de servidor por request.
	Tracing bool
}

// Routes devolve o handler completo.
//
// /health fica no mux raiz, fora da subárvore limitada; todo o resto passa
// pela camada global, e a rota de geração ainda pela camada por tier e pelo
// teto de concorrência.
func Routes(opts Options) http.Handler {
	generate := http.Handler(&GenerateHandler{Generator: opts.Generator})
	generate = ratelimit.ConcurrencyMiddleware(opts.Concurrency)(generate)
	generate = ratelimit.Middleware(opts.Tiered)(generate)

	limited := http.NewServeMux()
	limited.Handle(GeneratePath, generate)
	limited.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found", RateLimit: telemetryOf(r.Context())})
	})

	root := http.NewServeMux()
	root.HandleFunc(HealthPath, health)
	root.Handle("/", ratelimit.Middleware(opts.Global)(limited))

	mws := []func(http.Handler) http.Handler{
		httpx.Recovery,
		httpx.RequestID,
	}
	if opts.Tracing {
		mws = append(mws, httpx.Trace)
	}
	mws = append(mws,
		httpx.AccessLog,
		httpx.Metrics(routeLabel),
		httpx.CORS(opts.CORS),
	)
	return httpx.Chain(root, mws...)
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Server is running"))
}

// routeLabel mantém o rótulo de métricas em um conjunto fechado.
func routeLabel(r *http.Request) string {
	switch r.URL.Path {
	case GeneratePath, HealthPath:
		return r.URL.Path
	default:
		return "other"
	}
}

// LimiterOptions monta as duas camadas a partir da configuração.
// Cada camada tem a própria tabela de janelas.
func LimiterOptions(cfg config.RateLimitConfig, trustXFF bool, globalCounter, tieredCounter domain.WindowCounter, stats domain.StatsStore) (global, tiered ratelimit.Options, err error) {
	tiers, err := cfg.ClientTierMap()
	if err != nil {
		return ratelimit.Options{}, ratelimit.Options{}, err
	}
	keyFn := ratelimit.DefaultKeyFunc(trustXFF)

	global = ratelimit.Options{
		Limiter:             application.NewGlobalLimiter(globalCounter, cfg.RequestsPerMinute),
		Stats:               stats,
		KeyFn:               keyFn,
		AddRateLimitHeaders: true,
		RouteOf:             routeLabel,
	}
	tiered = ratelimit.Options{
		Limiter:             application.NewTieredLimiter("generate", tieredCounter, cfg.TierLimits()),
		Stats:               stats,
		KeyFn:               keyFn,
		TierFn:              ratelimit.StaticTierFunc(cfg.TierHeader, tiers),
		AddRateLimitHeaders: true,
		RouteOf:             routeLabel,
	}
	return global, tiered, nil
}

// NewHTTPServer aplica os timeouts configurados.
func NewHTTPServer(cfg config.ServerConfig, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           h,
		ReadHeaderTimeout: orDefault(cfg.ReadHeaderTimeout, 10*time.Second),
		ReadTimeout:       orDefault(cfg.ReadTimeout, 30*time.Second),
		WriteTimeout:      orDefault(cfg.WriteTimeout, 90*time.Second),
		IdleTimeout:       orDefault(cfg.IdleTimeout, 90*time.Second),
	}
}

func orDefault(d, def time.Duration) time.Duration {
	if d <= 0 {
		return def
	}
	return d
}
