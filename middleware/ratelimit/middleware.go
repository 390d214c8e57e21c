package ratelimit

import (
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"content-gateway/middleware/ratelimit/application"
	"content-gateway/middleware/ratelimit/domain"
)

type KeyFunc func(r *http.Request) string

// TierFunc classifica o cliente; o padrão é sempre free.
type TierFunc func(r *http.Request) domain.Tier

type Options struct {
	Limiter             application.Limiter
	Stats               domain.StatsStore
	KeyFn               KeyFunc
	TierFn              TierFunc
	TrustXForwardedFor  bool
	RejectStatus        int
	AddRateLimitHeaders bool
	Logger              *slog.Logger
	// RouteOf dá o Path registrado nas estatísticas; nil usa r.URL.Path.
	RouteOf func(r *http.Request) string
}

// rejectBody é o corpo do 429.
type rejectBody struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter"`
}

// ClientIP devolve o IP do cliente: primeiro X-Forwarded-For (se confiável) ou RemoteAddr.
func ClientIP(r *http.Request, trustXFF bool) string {
	if trustXFF {
		// pega o primeiro IP do X-Forwarded-For (cliente original)
		if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
			ip := strings.TrimSpace(strings.Split(xff, ",")[0])
			if ip != "" {
				return ip
			}
		}
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return "unknown"
}

// DefaultKeyFunc identifica o cliente por "<ip>-<user agent>".
//
// Clientes atrás do mesmo NAT/proxy com o mesmo agente dividem a chave.
func DefaultKeyFunc(trustXFF bool) KeyFunc {
	return func(r *http.Request) string {
		return ClientIP(r, trustXFF) + "-" + strings.TrimSpace(r.UserAgent())
	}
}

// StaticTierFunc lê o identificador do cliente em header e busca o tier na tabela
// (sem diferenciar maiúsculas). Ausente ou desconhecido vira free.
func StaticTierFunc(header string, tiers map[string]domain.Tier) TierFunc {
	table := make(map[string]domain.Tier, len(tiers))
	for id, t := range tiers {
		table[strings.ToLower(strings.TrimSpace(id))] = t
	}
	return func(r *http.Request) domain.Tier {
		if header == "" || len(table) == 0 {
			return domain.TierFree
		}
		id := strings.ToLower(strings.TrimSpace(r.Header.Get(header)))
		if t, ok := table[id]; ok && id != "" {
			return t
		}
		return domain.TierFree
	}
}

func Middleware(opts Options) func(next http.Handler) http.Handler {
	if opts.RejectStatus == 0 {
		opts.RejectStatus = http.StatusTooManyRequests
	}
	if opts.KeyFn == nil {
		opts.KeyFn = DefaultKeyFunc(opts.TrustXForwardedFor)
	}
	if opts.TierFn == nil {
		opts.TierFn = func(*http.Request) domain.Tier { return domain.TierFree }
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.RouteOf == nil {
		opts.RouteOf = func(r *http.Request) string { return r.URL.Path }
	}
	lim := opts.Limiter

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := domain.Key(opts.KeyFn(r))
			tier := opts.TierFn(r)

			dec := lim.Admit(key, tier)
			if opts.Stats != nil {
				ev := domain.StatsEvent{
					Key:     key,
					Allowed: dec.Allowed,
					Layer:   lim.Name,
					Tier:    tier,
					Method:  r.Method,
					Path:    opts.RouteOf(r),
					At:      time.Now(),
				}
				if err := opts.Stats.Record(r.Context(), ev); err != nil {
					opts.Logger.WarnContext(r.Context(), "rate limit stats failed", "layer", lim.Name, "error", err)
				}
			}

			ctx, tel := recordDecision(r.Context(), dec)
			if opts.AddRateLimitHeaders {
				tel.writeHeaders(w.Header())
			}

			if !dec.Allowed {
				rej := lim.Reject(tier, dec)
				opts.Logger.InfoContext(r.Context(), "rate limited",
					"layer", lim.Name,
					"tier", tier,
					"path", r.URL.Path,
					"retry_after", rej.RetryAfter,
				)
				w.Header().Set("Retry-After", formatInt(rej.RetryAfter))
				writeJSON(w, opts.RejectStatus, rejectBody{Error: rej.Message, RetryAfter: rej.RetryAfter})
				return
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
