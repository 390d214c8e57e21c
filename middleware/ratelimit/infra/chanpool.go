package infra

import (
	"context"
	"sync"

	"content-gateway/middleware/ratelimit/domain"
)

// ChanPool é um semáforo baseado em channel com capacidade fixa.
type ChanPool struct {
	sem chan struct{}
}

var _ domain.SlotPool = (*ChanPool)(nil)

func NewChanPool(capacity int) *ChanPool {
	return &ChanPool{sem: make(chan struct{}, capacity)}
}

// Acquire espera uma vaga até o ctx encerrar. Chamar release mais de uma vez é inofensivo.
//
// Uma vaga livre sempre vence, mesmo com ctx já cancelado.
func (p *ChanPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case p.sem <- struct{}{}:
		return p.releaser(), true
	default:
	}

	select {
	case p.sem <- struct{}{}:
		return p.releaser(), true
	case <-ctx.Done():
		return nil, false
	}
}

func (p *ChanPool) releaser() func() {
	var once sync.Once
	return func() { once.Do(func() { <-p.sem }) }
}

// InFlight devolve quantas vagas estão ocupadas agora.
func (p *ChanPool) InFlight() int { return len(p.sem) }

func (p *ChanPool) Capacity() int { return cap(p.sem) }
