package ratelimit

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"content-gateway/middleware/ratelimit/application"
	"content-gateway/middleware/ratelimit/domain"
	"content-gateway/middleware/ratelimit/infra"
)

type ConcurrencyOptions struct {
	Max            int
	RejectStatus   int
	AcquireTimeout time.Duration
	// Pool permite injetar o semáforo (ex: para expor InFlight); nil cria um ChanPool de Max vagas.
	Pool   domain.SlotPool
	Logger *slog.Logger
}

type unavailableBody struct {
	Error string `json:"error"`
}

// ConcurrencyMiddleware limita requisições simultâneas: admite ou rejeita, sem fila.
func ConcurrencyMiddleware(opts ConcurrencyOptions) func(next http.Handler) http.Handler {
	if opts.Max <= 0 && opts.Pool == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusServiceUnavailable
	}
	if opts.Pool == nil {
		opts.Pool = infra.NewChanPool(opts.Max)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	svc := application.ConcurrencyService{
		Pool:           opts.Pool,
		AcquireTimeout: opts.AcquireTimeout,
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			release, err := svc.Acquire(r.Context())
			if err != nil {
				if errors.Is(err, application.ErrNoSlot) {
					opts.Logger.WarnContext(r.Context(), "generation capacity exhausted", "path", r.URL.Path)
				}
				writeJSON(w, opts.RejectStatus, unavailableBody{Error: "Server is busy, please try again later"})
				return
			}
			defer release()

			next.ServeHTTP(w, r)
		})
	}
}
