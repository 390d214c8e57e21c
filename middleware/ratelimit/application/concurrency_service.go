package application

import (
	"context"
	"errors"
	"time"

	"content-gateway/middleware/ratelimit/domain"
)

// ErrNoSlot indica que todas as vagas de geração estavam ocupadas.
var ErrNoSlot = errors.New("ratelimit: no generation slot available")

// ConcurrencyService limita gerações simultâneas sem saber nada sobre HTTP.
type ConcurrencyService struct {
	Pool           domain.SlotPool
	AcquireTimeout time.Duration
}

// Acquire tenta ocupar uma vaga.
//   - AcquireTimeout <= 0: tentativa única, sem espera (admite ou rejeita);
//   - AcquireTimeout > 0: espera no máximo o timeout (ou até ctx cancelar).
func (s ConcurrencyService) Acquire(ctx context.Context) (func(), error) {
	if s.Pool == nil {
		return func() {}, nil
	}

	var cancel context.CancelFunc
	if s.AcquireTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.AcquireTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
		cancel()
	}
	defer cancel()

	release, ok := s.Pool.Acquire(ctx)
	if !ok {
		return nil, ErrNoSlot
	}
	return release, nil
}
