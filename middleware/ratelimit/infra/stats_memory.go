package infra

import (
	"context"
	"sync"

	"content-gateway/middleware/ratelimit/domain"
)

type Counters struct {
	Allowed int64 `json:"allowed"`
	Denied  int64 `json:"denied"`
}

func (c *Counters) add(allowed bool) {
	if allowed {
		c.Allowed++
		return
	}
	c.Denied++
}

// MemoryStatsStore guarda contadores de admissão em memória.
//
// Não faz expiração; com WithTrackKeys a cardinalidade cresce com os clientes.
type MemoryStatsStore struct {
	mu      sync.Mutex
	total   Counters
	byLayer map[string]Counters
	byRoute map[string]Counters
	byKey   map[string]Counters

	trackKeys bool
}

// StatsSnapshot é a cópia servida em /debug/ratelimit.
type StatsSnapshot struct {
	Total   Counters            `json:"total"`
	ByLayer map[string]Counters `json:"byLayer"`
	ByRoute map[string]Counters `json:"byRoute"`
	ByKey   map[string]Counters `json:"byKey,omitempty"`
}

type MemoryStatsOption func(*MemoryStatsStore)

func WithTrackKeys(track bool) MemoryStatsOption {
	return func(s *MemoryStatsStore) { s.trackKeys = track }
}

func NewMemoryStatsStore(opts ...MemoryStatsOption) *MemoryStatsStore {
	s := &MemoryStatsStore{
		byLayer: make(map[string]Counters),
		byRoute: make(map[string]Counters),
		byKey:   make(map[string]Counters),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *MemoryStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	route := ev.Method + " " + ev.Path

	s.mu.Lock()
	defer s.mu.Unlock()

	s.total.add(ev.Allowed)
	bump(s.byLayer, ev.Layer, ev.Allowed)
	bump(s.byRoute, route, ev.Allowed)
	if s.trackKeys {
		bump(s.byKey, string(ev.Key), ev.Allowed)
	}
	return nil
}

func bump(m map[string]Counters, k string, allowed bool) {
	c := m[k]
	c.add(allowed)
	m[k] = c
}

func (s *MemoryStatsStore) Total() Counters {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

func (s *MemoryStatsStore) Snapshot() StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := StatsSnapshot{
		Total:   s.total,
		ByLayer: copyCounters(s.byLayer),
		ByRoute: copyCounters(s.byRoute),
	}
	if s.trackKeys {
		snap.ByKey = copyCounters(s.byKey)
	}
	return snap
}

func copyCounters(in map[string]Counters) map[string]Counters {
	out := make(map[string]Counters, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
