package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"content-gateway/middleware/ratelimit/infra"
)

type blockingPool struct{}

func (p *blockingPool) Acquire(ctx context.Context) (func(), bool) {
	select {
	case <-ctx.Done():
		return nil, false
	case <-time.After(5 * time.Second):
		return nil, false
	}
}

func TestConcurrencyService_Acquire_AllowsWhenNoPool(t *testing.T) {
	release, err := ConcurrencyService{}.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected slot, got %v", err)
	}
	release()
}

func TestConcurrencyService_Acquire_UsesTimeout(t *testing.T) {
	svc := ConcurrencyService{Pool: &blockingPool{}, AcquireTimeout: 10 * time.Millisecond}

	start := time.Now()
	_, err := svc.Acquire(context.Background())
	if !errors.Is(err, ErrNoSlot) {
		t.Fatalf("expected ErrNoSlot, got %v", err)
	}
	if time.Since(start) > time.Second {
		t.Fatalf("expected acquire to give up after the timeout")
	}
}

func TestConcurrencyService_Acquire_ZeroTimeoutDoesNotWait(t *testing.T) {
	pool := infra.NewChanPool(1)
	svc := ConcurrencyService{Pool: pool}

	release, err := svc.Acquire(context.Background())
	if err != nil {
		t.Fatalf("expected first acquire to succeed, got %v", err)
	}
	defer release()

	if _, err := svc.Acquire(context.Background()); !errors.Is(err, ErrNoSlot) {
		t.Fatalf("expected immediate rejection on a full pool, got %v", err)
	}
}

func TestConcurrencyService_Acquire_FreeSlotWithZeroTimeout(t *testing.T) {
	svc := ConcurrencyService{Pool: infra.NewChanPool(2)}
	for i := 0; i < 2; i++ {
		if _, err := svc.Acquire(context.Background()); err != nil {
			t.Fatalf("acquire %d: expected slot, got %v", i, err)
		}
	}
}
