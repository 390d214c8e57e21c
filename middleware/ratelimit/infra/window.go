package infra

import (
	"context"
	"sync"
	"time"

	"content-gateway/middleware/ratelimit/domain"
)

// WindowStore é a tabela de janelas fixas por chave.
//
// É o único dono do estado de contagem: a leitura e o incremento acontecem
// sob o mesmo lock, então chamadas concorrentes para a mesma chave nunca
// perdem incremento nem admitem além do limite.
type WindowStore struct {
	mu           sync.Mutex
	windows      map[domain.Key]*window
	size         time.Duration
	cleanupEvery time.Duration
	now          func() time.Time
}

type window struct {
	start time.Time
	count int
}

type WindowOption func(*WindowStore)

func WithCleanupEvery(d time.Duration) WindowOption {
	return func(s *WindowStore) { s.cleanupEvery = d }
}

// WithClock troca o relógio (testes).
func WithClock(now func() time.Time) WindowOption {
	return func(s *WindowStore) { s.now = now }
}

func NewWindowStore(opts ...WindowOption) *WindowStore {
	s := &WindowStore{
		windows:      make(map[domain.Key]*window),
		size:         domain.Window,
		cleanupEvery: 2 * time.Minute,
		now:          time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *WindowStore) CleanupEvery() time.Duration { return s.cleanupEvery }

// CheckAndRecord implementa domain.WindowCounter.
//
// A janela reinicia quando now >= start + 60s. O contador sobe em toda
// chamada, inclusive nas rejeitadas.
func (s *WindowStore) CheckAndRecord(key domain.Key, limit int) domain.Decision {
	now := s.now()

	s.mu.Lock()
	w, ok := s.windows[key]
	if !ok || !now.Before(w.start.Add(s.size)) {
		w = &window{start: now}
		s.windows[key] = w
	}
	w.count++
	count := w.count
	resetAt := w.start.Add(s.size)
	s.mu.Unlock()

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	dec := domain.Decision{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !dec.Allowed {
		dec.RetryAfter = resetAt.Sub(now)
	}
	return dec
}

// Count devolve a contagem da janela corrente (0 se expirada ou inexistente).
func (s *WindowStore) Count(key domain.Key) int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.windows[key]
	if !ok || !now.Before(w.start.Add(s.size)) {
		return 0
	}
	return w.count
}

func (s *WindowStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.windows)
}

// Cleanup remove as janelas já expiradas.
func (s *WindowStore) Cleanup() {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	for k, w := range s.windows {
		if !now.Before(w.start.Add(s.size)) {
			delete(s.windows, k)
		}
	}
}

// StartJanitor inicia uma goroutine que limpa janelas expiradas periodicamente.
// Pare cancelando o contexto.
func (s *WindowStore) StartJanitor(ctx context.Context) {
	if s.cleanupEvery <= 0 {
		return
	}

	t := time.NewTicker(s.cleanupEvery)
	go func() {
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				s.Cleanup()
			}
		}
	}()
}
