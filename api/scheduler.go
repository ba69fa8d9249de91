/*
scheduler.go - Periodic refresh of derived account balances

PURPOSE:
  An account's current balance and payoff date depend on "today". The
  scheduler re-derives every active account on a fixed interval so the
  stored values roll forward as months pass, without waiting for a
  client to call /refresh.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Runs once immediately on start
  - A failed run is logged and retried on the next tick

CONFIGURATION:
  - Interval: How often to refresh (config REFRESH_INTERVAL, default 6h)
  - Enabled: Whether the scheduler is active

USAGE:
  scheduler := api.NewRefreshScheduler(svc, logger, cfg.RefreshInterval)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - tracking/service.go: RefreshAll
  - handlers.go: RefreshAccount endpoint (single account)
*/
package api

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/warp/debt-engine/tracking"
)

// RefreshScheduler periodically re-derives all active accounts.
type RefreshScheduler struct {
	Service  *tracking.Service
	Logger   *slog.Logger
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewRefreshScheduler creates a scheduler. A non-positive interval
// leaves it disabled.
func NewRefreshScheduler(svc *tracking.Service, logger *slog.Logger, interval time.Duration) *RefreshScheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &RefreshScheduler{
		Service:  svc,
		Logger:   logger,
		Interval: interval,
		Enabled:  interval > 0,
	}
}

// Start begins the scheduler. Starting a running scheduler is a no-op.
func (rs *RefreshScheduler) Start() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if !rs.Enabled {
		rs.Logger.Info("refresh scheduler disabled")
		return
	}
	if rs.ticker != nil {
		return
	}

	rs.ticker = time.NewTicker(rs.Interval)
	rs.stop = make(chan struct{})
	rs.wg.Add(1)

	go rs.run(rs.ticker.C, rs.stop)

	rs.Logger.Info("refresh scheduler started", "interval", rs.Interval.String())
}

// Stop stops the scheduler and waits for an in-flight run to finish.
func (rs *RefreshScheduler) Stop() {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	if rs.ticker == nil {
		return
	}
	rs.ticker.Stop()
	close(rs.stop)
	rs.wg.Wait()
	rs.ticker = nil
	rs.Logger.Info("refresh scheduler stopped")
}

func (rs *RefreshScheduler) run(tick <-chan time.Time, stop <-chan struct{}) {
	defer rs.wg.Done()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-stop:
			cancel()
		case <-ctx.Done():
		}
	}()

	rs.RunOnce(ctx)

	for {
		select {
		case <-tick:
			rs.RunOnce(ctx)
		case <-stop:
			return
		}
	}
}

// RunOnce refreshes every active account and returns how many were
// refreshed.
func (rs *RefreshScheduler) RunOnce(ctx context.Context) int {
	start := time.Now()
	n, err := rs.Service.RefreshAll(ctx)
	RefreshedAccounts.Add(float64(n))
	RefreshRuns.WithLabelValues(outcome(err)).Inc()

	if err != nil {
		rs.Logger.Error("refresh run failed", "refreshed", n, "error", err)
		return n
	}
	rs.Logger.Info("refresh run completed",
		"refreshed", n,
		"as_of", rs.Service.Today().String(),
		"duration", time.Since(start).String(),
	)
	return n
}
