package infra

import (
	"context"
	"errors"
	"testing"

	"content-gateway/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMemoryStatsStore_CountsByLayerAndRoute(t *testing.T) {
	s := NewMemoryStatsStore(WithTrackKeys(true))
	ctx := context.Background()

	_ = s.Record(ctx, domain.StatsEvent{Key: "k1", Allowed: true, Layer: "global", Method: "POST", Path: "/api/generate"})
	_ = s.Record(ctx, domain.StatsEvent{Key: "k1", Allowed: false, Layer: "generate", Tier: domain.TierFree, Method: "POST", Path: "/api/generate"})

	total := s.Total()
	if total.Allowed != 1 || total.Denied != 1 {
		t.Fatalf("unexpected totals %+v", total)
	}

	snap := s.Snapshot()
	if snap.ByLayer["generate"].Denied != 1 {
		t.Fatalf("expected denied counted under generate layer, got %+v", snap.ByLayer)
	}
	if got := snap.ByRoute["POST /api/generate"]; got.Allowed != 1 || got.Denied != 1 {
		t.Fatalf("unexpected route counters %+v", got)
	}
	if got := snap.ByKey["k1"]; got.Allowed != 1 || got.Denied != 1 {
		t.Fatalf("unexpected key counters %+v", got)
	}
}

func TestMemoryStatsStore_SnapshotOmitsKeysWhenNotTracked(t *testing.T) {
	s := NewMemoryStatsStore()
	_ = s.Record(context.Background(), domain.StatsEvent{Key: "k", Allowed: true, Layer: "global"})

	if snap := s.Snapshot(); snap.ByKey != nil {
		t.Fatalf("expected no per-key counters, got %+v", snap.ByKey)
	}
}

func TestPrometheusStatsStore_IncrementsDecisionCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewPrometheusStatsStore(reg)

	_ = s.Record(context.Background(), domain.StatsEvent{Allowed: false, Layer: "generate", Tier: domain.TierBasic})
	_ = s.Record(context.Background(), domain.StatsEvent{Allowed: true, Layer: "global"})

	if got := testutil.ToFloat64(s.decisions.WithLabelValues("generate", "basic", "denied")); got != 1 {
		t.Fatalf("expected 1 denied decision, got %v", got)
	}
	if got := testutil.ToFloat64(s.decisions.WithLabelValues("global", "none", "allowed")); got != 1 {
		t.Fatalf("expected 1 allowed decision, got %v", got)
	}
}

type failingStats struct{ calls int }

func (f *failingStats) Record(context.Context, domain.StatsEvent) error {
	f.calls++
	return errors.New("boom")
}

func TestTeeStats_FansOutAndJoinsErrors(t *testing.T) {
	mem := NewMemoryStatsStore()
	bad := &failingStats{}

	tee := TeeStats(nil, mem, bad)
	err := tee.Record(context.Background(), domain.StatsEvent{Allowed: true, Layer: "global"})
	if err == nil {
		t.Fatalf("expected joined error")
	}
	if mem.Total().Allowed != 1 || bad.calls != 1 {
		t.Fatalf("expected every store to receive the event")
	}
}

func TestTeeStats_CollapsesTrivialCases(t *testing.T) {
	if TeeStats() != nil || TeeStats(nil) != nil {
		t.Fatalf("expected nil when no stores are given")
	}
	mem := NewMemoryStatsStore()
	if got := TeeStats(nil, mem); got != domain.StatsStore(mem) {
		t.Fatalf("expected single store to be returned as is")
	}
}

func TestChanPool_ReleaseIsIdempotent(t *testing.T) {
	p := NewChanPool(1)

	release, ok := p.Acquire(context.Background())
	if !ok {
		t.Fatalf("expected first acquire to succeed")
	}
	release()
	release()

	if got := p.InFlight(); got != 0 {
		t.Fatalf("expected no slots in use, got %d", got)
	}
	if _, ok := p.Acquire(context.Background()); !ok {
		t.Fatalf("expected slot to be free again")
	}
}

func TestChanPool_AcquireFailsWhenContextDone(t *testing.T) {
	p := NewChanPool(1)
	_, _ = p.Acquire(context.Background())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, ok := p.Acquire(ctx); ok {
		t.Fatalf("expected acquire to fail on a full pool with cancelled ctx")
	}
}
