package domain

import (
	"context"
	"time"
)

// StatsEvent é uma decisão de uma camada, registrada depois do check-and-record.
//
// Key e Path têm cardinalidade aberta: stores que indexam por eles devem ser opt-in.
type StatsEvent struct {
	Key     Key
	Allowed bool

	// Layer identifica a camada que decidiu ("global", "generate").
	Layer string
	Tier  Tier

	Method string
	Path   string

	At time.Time
}

// StatsStore recebe as decisões. Falhas são só logadas; a request segue.
type StatsStore interface {
	Record(ctx context.Context, ev StatsEvent) error
}
