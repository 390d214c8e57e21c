package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"content-gateway/backend/gemini"
	"content-gateway/config"
	"content-gateway/content"
	"content-gateway/middleware/httpx"
	"content-gateway/middleware/ratelimit"
	"content-gateway/middleware/ratelimit/domain"
	"content-gateway/middleware/ratelimit/infra"
	"content-gateway/observability/logger"
	"content-gateway/observability/tracer"
	"content-gateway/server"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONTENTD_CONFIG"), "path to YAML config (default configs/config.yaml if present)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatal(context.Background(), "config error", err)
	}
	logger.Init(cfg.Observability.Logging.Level, cfg.Observability.Logging.Format)
	if err := cfg.Validate(); err != nil {
		logger.Fatal(context.Background(), "invalid config", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.Observability.Tracing.ServiceName,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "tracer init error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracer(flushCtx)
	}()

	// stats: memória sempre; Redis e Prometheus opcionais
	memStats := infra.NewMemoryStatsStore()
	stores := []domain.StatsStore{memStats}
	if cfg.Observability.Metrics.Enabled {
		stores = append(stores, infra.NewPrometheusStatsStore(prometheus.DefaultRegisterer))
	}
	if s := cfg.RateLimit.Stats; s.Enabled {
		rdb := redis.NewClient(&redis.Options{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
		})
		defer func() { _ = rdb.Close() }()

		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_, err := rdb.Ping(pingCtx).Result()
		cancel()
		if err != nil {
			logger.Fatal(ctx, "redis stats ping error", err, "addr", s.RedisAddr)
		}

		stores = append(stores, infra.NewRedisStatsStore(
			rdb,
			infra.WithStatsPrefix(s.Prefix),
			infra.WithStatsTTL(s.TTL),
			infra.WithStatsBucket(s.Bucket),
			infra.WithStatsTrackKeys(s.TrackKeys),
		))
	}
	stats := infra.TeeStats(stores...)

	globalWindows := infra.NewWindowStore(infra.WithCleanupEvery(cfg.RateLimit.CleanupEvery))
	tieredWindows := infra.NewWindowStore(infra.WithCleanupEvery(cfg.RateLimit.CleanupEvery))
	globalWindows.StartJanitor(ctx)
	tieredWindows.StartJanitor(ctx)

	global, tiered, err := server.LimiterOptions(cfg.RateLimit, cfg.Server.TrustXFF, globalWindows, tieredWindows, stats)
	if err != nil {
		logger.Fatal(ctx, "rate limit config error", err)
	}

	backend := gemini.New(cfg.Gemini.APIKey,
		gemini.WithBaseURL(cfg.Gemini.BaseURL),
		gemini.WithModel(cfg.Gemini.DefaultModel),
		gemini.WithMaxTokens(cfg.Gemini.MaxTokens),
		gemini.WithTemperature(cfg.Gemini.Temperature),
		gemini.WithTopP(cfg.Gemini.TopP),
		gemini.WithRequestRate(cfg.Gemini.MaxRPS, cfg.Gemini.Burst),
		gemini.WithHTTPClient(&http.Client{Timeout: cfg.Server.GenerationTimeout + 5*time.Second}),
	)
	generator := content.NewGenerator(backend,
		content.NewFileStore(cfg.Storage.OutputDir),
		content.WithTimeout(cfg.Server.GenerationTimeout),
	)

	var pool *infra.ChanPool
	if cfg.Server.ConcurrencyMax > 0 {
		pool = infra.NewChanPool(cfg.Server.ConcurrencyMax)
	}
	concurrency := ratelimit.ConcurrencyOptions{
		Max:            cfg.Server.ConcurrencyMax,
		AcquireTimeout: cfg.Server.ConcurrencyTimeout,
	}
	if pool != nil {
		concurrency.Pool = pool
	}

	api := server.NewHTTPServer(cfg.Server, server.Routes(server.Options{
		Generator:   generator,
		Global:      global,
		Tiered:      tiered,
		Concurrency: concurrency,
		CORS:        httpx.CORSConfig{AllowedOrigins: cfg.Server.CORSOrigins},
		Tracing:     cfg.Observability.Tracing.Enabled,
	}))

	servers := []*http.Server{api}
	if m := cfg.Observability.Metrics; m.Enabled && m.Addr != "" {
		servers = append(servers, &http.Server{
			Addr: m.Addr,
			Handler: server.OpsHandler(server.OpsOptions{
				MetricsPath: m.Path,
				Stats:       memStats,
				Windows:     map[string]*infra.WindowStore{"global": globalWindows, "generate": tieredWindows},
				Pool:        pool,
			}),
			ReadHeaderTimeout: 10 * time.Second,
		})
	}

	limits := cfg.RateLimit.TierLimits()
	logger.Info(ctx, "content gateway listening",
		"addr", api.Addr,
		"model", backend.Model(),
		"output_dir", cfg.Storage.OutputDir,
	)
	logger.Info(ctx, "rate limit",
		"global_rpm", domain.UniformLimits(cfg.RateLimit.RequestsPerMinute).Free,
		"free", limits.Free, "basic", limits.Basic, "premium", limits.Premium,
		"trust_xff", cfg.Server.TrustXFF,
		"stats_redis", cfg.RateLimit.Stats.Enabled,
	)
	logger.Info(ctx, "concurrency", "max", cfg.Server.ConcurrencyMax, "acquire_timeout", cfg.Server.ConcurrencyTimeout)

	g, gctx := errgroup.WithContext(ctx)
	for _, srv := range servers {
		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		var errs []error
		for _, srv := range servers {
			errs = append(errs, srv.Shutdown(shutdownCtx))
		}
		return errors.Join(errs...)
	})

	if err := g.Wait(); err != nil {
		logger.Fatal(context.Background(), "server error", err)
	}
	logger.Info(context.Background(), "content gateway stopped")
}
