// Package sweeper expires overdue requests on a fixed interval. It runs
// independently of the live pipeline and never blocks it.
package sweeper

import (
	"context"
	"log/slog"
	"time"

	"riskgate/internal/validation/models"
	"riskgate/internal/validation/store/request"
)

// Expirer applies the EXPIRED transition; implemented by the pipeline so the
// sweep reuses the same compare-and-set write path.
type Expirer interface {
	Expire(ctx context.Context, req *models.Request) error
}

// Sweeper periodically expires non-terminal records whose retention window
// has elapsed.
type Sweeper struct {
	store    request.Store
	expirer  Expirer
	interval time.Duration
	logger   *slog.Logger
}

// New creates a sweeper ticking at the given interval.
func New(store request.Store, expirer Expirer, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{store: store, expirer: expirer, interval: interval, logger: logger}
}

// Run sweeps until the context is cancelled.
func (s *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

// sweep expires one batch. Individual failures are logged and skipped; a
// record that loses a concurrent write race is picked up next tick if still
// pending.
func (s *Sweeper) sweep(ctx context.Context) {
	overdue, err := s.store.ListExpiredPending(ctx, time.Now())
	if err != nil {
		s.logger.Error("expiry sweep query failed", "error", err)
		return
	}
	if len(overdue) == 0 {
		return
	}

	expired := 0
	for _, req := range overdue {
		if err := s.expirer.Expire(ctx, req); err != nil {
			s.logger.Warn("failed to expire request",
				"correlation_id", req.CorrelationID, "error", err)
			continue
		}
		expired++
	}
	s.logger.Info("expiry sweep finished", "overdue", len(overdue), "expired", expired)
}
