package domain

// Camada de domínio do rate limit.
//
// Regras e contratos (interfaces/tipos) sem dependência de net/http.

import (
	"fmt"
	"time"
)

// Window é a duração fixa da janela de contagem.
const Window = 60 * time.Second

type Key string

// Decision é o resultado de um check-and-record.
type Decision struct {
	Allowed bool
	// Limit é o teto da janela que produziu a decisão.
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter é o valor a ser retornado em Retry-After quando bloquear.
	// Se 0, não há recomendação.
	RetryAfter time.Duration
}

// RetryAfterSeconds arredonda para cima e fica sempre em [1, 60] quando bloqueado.
func (d Decision) RetryAfterSeconds() int {
	if d.Allowed {
		return 0
	}
	secs := int((d.RetryAfter + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	if ceiling := int(Window / time.Second); secs > ceiling {
		secs = ceiling
	}
	return secs
}

// Tighter diz se d é mais restritiva que other (menos requisições restantes).
func (d Decision) Tighter(other Decision) bool {
	if d.Allowed != other.Allowed {
		return !d.Allowed
	}
	return d.Remaining < other.Remaining
}

// WindowCounter decide e registra atomicamente uma requisição para a chave.
//
// Toda chamada incrementa o contador, permitida ou não.
type WindowCounter interface {
	CheckAndRecord(key Key, limit int) Decision
}

// RateLimitError é a rejeição por limite, com o tempo até a janela reabrir.
type RateLimitError struct {
	Message    string
	RetryAfter int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%s (retry after %ds)", e.Message, e.RetryAfter)
}
