package ratelimit

import (
	"context"
	"net/http"
	"time"

	"content-gateway/middleware/ratelimit/domain"
)

type telemetryKey struct{}

// Telemetry é o estado de limite mais restritivo entre as camadas que a request atravessou.
type Telemetry struct {
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type telemetry struct {
	tightest domain.Decision
}

// recordDecision acumula a decisão da camada no contexto da request.
// As camadas rodam em sequência na mesma goroutine, sem concorrência.
func recordDecision(ctx context.Context, dec domain.Decision) (context.Context, *telemetry) {
	if tel, ok := ctx.Value(telemetryKey{}).(*telemetry); ok {
		if dec.Tighter(tel.tightest) {
			tel.tightest = dec
		}
		return ctx, tel
	}
	tel := &telemetry{tightest: dec}
	return context.WithValue(ctx, telemetryKey{}, tel), tel
}

func (t *telemetry) writeHeaders(h http.Header) {
	h.Set("X-RateLimit-Limit", formatInt(t.tightest.Limit))
	h.Set("X-RateLimit-Remaining", formatInt(t.tightest.Remaining))
	h.Set("X-RateLimit-Reset", formatInt64(t.tightest.ResetAt.Unix()))
}

// TelemetryFromContext devolve a telemetria registrada pelas camadas, se houver.
func TelemetryFromContext(ctx context.Context) (Telemetry, bool) {
	tel, ok := ctx.Value(telemetryKey{}).(*telemetry)
	if !ok {
		return Telemetry{}, false
	}
	return Telemetry{
		Limit:     tel.tightest.Limit,
		Remaining: tel.tightest.Remaining,
		ResetAt:   tel.tightest.ResetAt,
	}, true
}
