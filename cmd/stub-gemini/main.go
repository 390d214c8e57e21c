package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"content-gateway/backend/gemini/geminitest"
	"content-gateway/observability/logger"
)

// Servidor local que imita o generateContent do Gemini, para rodar o contentd sem chave real:
//
//	GEMINI_BASE_URL=http://localhost:8090 GEMINI_API_KEY=dev go run ./cmd/contentd
func main() {
	logger.Init(getenvDefault("LOG_LEVEL", "info"), "text")

	delay, _ := time.ParseDuration(os.Getenv("STUB_DELAY"))
	status := http.StatusOK
	if v, err := strconv.Atoi(os.Getenv("STUB_STATUS")); err == nil && v > 0 {
		status = v
	}

	fake := &geminitest.Fake{
		APIKey: os.Getenv("STUB_API_KEY"),
		Reply: func(prompt string) geminitest.Reply {
			rep := geminitest.Echo(prompt)
			rep.Status = status
			rep.Delay = delay
			return rep
		},
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	addr := getenvDefault("LISTEN_ADDR", ":8090")
	srv := &http.Server{
		Addr:              addr,
		Handler:           fake,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info(ctx, "stub gemini listening", "addr", addr, "status", status, "delay", delay)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal(ctx, "server error", err)
	}
}

func getenvDefault(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
