package infra

import (
	"context"

	"content-gateway/middleware/ratelimit/domain"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusStatsStore expõe as decisões como contador com labels de baixa
// cardinalidade (layer, tier, outcome). Key e Path ficam de fora.
type PrometheusStatsStore struct {
	decisions *prometheus.CounterVec
}

func NewPrometheusStatsStore(reg prometheus.Registerer) *PrometheusStatsStore {
	decisions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "contentgw",
			Subsystem: "ratelimit",
			Name:      "decisions_total",
			Help:      "Rate limit admission decisions by layer, tier and outcome",
		},
		[]string{"layer", "tier", "outcome"},
	)
	if reg != nil {
		reg.MustRegister(decisions)
	}
	return &PrometheusStatsStore{decisions: decisions}
}

func (s *PrometheusStatsStore) Record(_ context.Context, ev domain.StatsEvent) error {
	outcome := "denied"
	if ev.Allowed {
		outcome = "allowed"
	}
	tier := string(ev.Tier)
	if tier == "" {
		tier = "none"
	}
	s.decisions.WithLabelValues(ev.Layer, tier, outcome).Inc()
	return nil
}
