package application

import (
	"fmt"

	"content-gateway/middleware/ratelimit/domain"
)

const defaultRejectMessage = "Too many requests, please try again later"

// Limiter é uma camada de admissão: um contador de janela + o teto por tier.
//
// Camadas são independentes e se compõem em sequência (global, depois a da rota).
// Não sabe nada sobre HTTP (headers/status), apenas retorna uma decisão.
type Limiter struct {
	Name    string
	Counter domain.WindowCounter
	Limits  domain.TierLimits
	// Message monta o texto da rejeição; nil usa a mensagem padrão.
	Message func(domain.Tier) string
}

// NewGlobalLimiter aplica o mesmo teto (rpm) a todos os clientes.
func NewGlobalLimiter(counter domain.WindowCounter, rpm int) Limiter {
	return Limiter{
		Name:    "global",
		Counter: counter,
		Limits:  domain.UniformLimits(rpm),
	}
}

// NewTieredLimiter aplica o teto do tier do cliente.
func NewTieredLimiter(name string, counter domain.WindowCounter, limits domain.TierLimits) Limiter {
	return Limiter{
		Name:    name,
		Counter: counter,
		Limits:  limits,
		Message: func(t domain.Tier) string {
			return fmt.Sprintf("Rate limit exceeded for %s tier", t)
		},
	}
}

// Admit é o check-and-record da camada.
func (l Limiter) Admit(key domain.Key, tier domain.Tier) domain.Decision {
	if l.Counter == nil {
		return domain.Decision{Allowed: true}
	}
	limit := l.Limits.For(tier)
	if limit <= 0 {
		limit = domain.DefaultRequestsPerMinute
	}
	return l.Counter.CheckAndRecord(key, limit)
}

// Reject traduz uma decisão negativa no erro de domínio.
func (l Limiter) Reject(tier domain.Tier, dec domain.Decision) *domain.RateLimitError {
	msg := defaultRejectMessage
	if l.Message != nil {
		msg = l.Message(tier)
	}
	return &domain.RateLimitError{Message: msg, RetryAfter: dec.RetryAfterSeconds()}
}
