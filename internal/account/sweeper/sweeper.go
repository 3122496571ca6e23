// Package sweeper periodically purges expired email tokens.
package sweeper

import (
	"context"
	"time"

	"github.com/dmitrijs2005/reviewhub/internal/logging"
)

type SweepFunc func(ctx context.Context) (int64, error)

type Sweeper struct {
	sweep    SweepFunc
	interval time.Duration
	log      logging.Logger
}

// DefaultInterval replaces a non-positive interval.
const DefaultInterval = time.Hour

func New(sweep SweepFunc, interval time.Duration, log logging.Logger) *Sweeper {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Sweeper{sweep: sweep, interval: interval, log: log.With("module", "sweeper")}
}

// Run sweeps once per interval until ctx is cancelled. Failures are logged
// and the loop goes on.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx)
		}
	}
}

func (s *Sweeper) runOnce(ctx context.Context) {
	n, err := s.sweep(ctx)
	if err != nil {
		s.log.Error(ctx, "sweep failed", "error", err)
		return
	}
	if n > 0 {
		s.log.Info(ctx, "expired email tokens removed", "count", n)
	}
}
