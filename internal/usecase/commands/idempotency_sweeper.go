package commands

import (
	"context"
	"log/slog"
	"time"

	"travel-booking/internal/pkg/clock"
	"travel-booking/internal/pkg/errs"
)

type ExpiredKeyDeleter interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// IdempotencySweeper removes idempotency keys past their expiry.
// Expired keys are also reclaimed lazily on reuse, so sweeping only bounds table growth.
type IdempotencySweeper struct {
	store    ExpiredKeyDeleter
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger
}

func NewIdempotencySweeper(store ExpiredKeyDeleter, clk clock.Clock, interval time.Duration, logger *slog.Logger) *IdempotencySweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &IdempotencySweeper{store: store, clock: clk, interval: interval, logger: logger}
}

func (s *IdempotencySweeper) SweepOnce(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteExpired(ctx, s.clock.Now())
	if err != nil {
		return 0, errs.Wrap(err, "delete expired idempotency keys")
	}
	return n, nil
}

// Run sweeps every interval until ctx is done.
func (s *IdempotencySweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepOnce(ctx)
			if err != nil {
				if ctx.Err() == nil {
					s.logger.Warn("idempotency sweep failed", "error", err)
				}
				continue
			}
			if n > 0 {
				s.logger.Info("idempotency keys swept", "deleted", n)
			}
		}
	}
}
