package cron

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"

	"socialpay/internal/models"
)

type fakeSweeper struct {
	ttl   time.Duration
	calls int32
}

func (f *fakeSweeper) Sweep(now time.Time, ttl time.Duration) int {
	atomic.AddInt32(&f.calls, 1)
	f.ttl = ttl
	return 2
}

type fakeRefresher struct {
	err   error
	panic bool
	calls int32
}

func (f *fakeRefresher) Refresh(ctx context.Context) ([]models.Gateway, error) {
	atomic.AddInt32(&f.calls, 1)
	if f.panic {
		panic("backend exploded")
	}
	return nil, f.err
}

func TestScheduler_SweepUsesTTL(t *testing.T) {
	sweeper := &fakeSweeper{}
	s := New(sweeper, &fakeRefresher{}, 30*time.Minute, zap.NewNop())

	s.sweepSessions()
	if sweeper.calls != 1 || sweeper.ttl != 30*time.Minute {
		t.Errorf("Expected one sweep with 30m TTL, got %d/%s", sweeper.calls, sweeper.ttl)
	}
}

func TestScheduler_RefreshSurvivesFailures(t *testing.T) {
	refresher := &fakeRefresher{err: errors.New("timeout")}
	s := New(&fakeSweeper{}, refresher, time.Minute, zap.NewNop())
	s.refreshCatalog()

	refresher.panic = true
	s.refreshCatalog()

	if n := atomic.LoadInt32(&refresher.calls); n != 2 {
		t.Errorf("Expected 2 refresh calls, got %d", n)
	}
}

func TestScheduler_StartStop(t *testing.T) {
	s := New(&fakeSweeper{}, &fakeRefresher{}, time.Minute, zap.NewNop())
	if err := s.Start(); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	select {
	case <-s.Stop().Done():
	case <-time.After(time.Second):
		t.Error("Expected scheduler to stop")
	}
}
