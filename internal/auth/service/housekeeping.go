package service

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coachhub/platform/internal/auth/metrics"
	"github.com/coachhub/platform/internal/auth/store"
	"github.com/coachhub/platform/pkg/kvx"
)

// HousekeepingService periodically clears refresh token state past its
// expiry and evicts expired pending signups from stores that need it.
type HousekeepingService struct {
	Store    store.Store
	KV       kvx.Store
	Metrics  *metrics.Metrics
	Logger   *slog.Logger
	Interval time.Duration

	stopCh   chan struct{}
	doneCh   chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

// NewHousekeepingService creates a housekeeping service. A non-positive
// interval defaults to 1 hour.
func NewHousekeepingService(
	st store.Store,
	kv kvx.Store,
	m *metrics.Metrics,
	logger *slog.Logger,
	interval time.Duration,
) *HousekeepingService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &HousekeepingService{
		Store:    st,
		KV:       kv,
		Metrics:  m,
		Logger:   logger,
		Interval: interval,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start runs cleanup immediately and then on every interval until Stop.
// Only the first call has an effect.
func (s *HousekeepingService) Start() {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go s.run()
	s.Logger.Info("housekeeping service started", "interval", s.Interval)
}

// Stop blocks until any in-progress cleanup has finished. It is safe to call
// more than once, and before Start.
func (s *HousekeepingService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.started.Load() {
			<-s.doneCh
		}
		s.Logger.Info("housekeeping service stopped")
	})
}

func (s *HousekeepingService) run() {
	defer close(s.doneCh)

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-s.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	s.RunOnce(ctx)
	for {
		select {
		case <-ticker.C:
			s.RunOnce(ctx)
		case <-s.stopCh:
			return
		}
	}
}

// RunOnce performs a single cleanup pass. Each step is independent so a
// failure in one doesn't skip the other.
func (s *HousekeepingService) RunOnce(ctx context.Context) {
	cleared, err := s.Store.Users().ClearExpiredRefreshTokens(ctx, time.Now())
	if err != nil {
		s.Logger.Error("failed to clear expired refresh tokens", "error", err)
	} else {
		s.Metrics.ObserveCleared(cleared)
	}

	pruned := 0
	if p, ok := s.KV.(kvx.Pruner); ok {
		if pruned, err = p.Prune(ctx); err != nil {
			s.Logger.Error("failed to prune pending signups", "error", err)
		}
	}

	s.Logger.Info("housekeeping cleanup completed",
		"refresh_tokens_cleared", cleared,
		"pending_signups_pruned", pruned,
	)
}
