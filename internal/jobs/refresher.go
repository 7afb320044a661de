package jobs

import (
	"context"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/apothio/storefront-reco/internal/application/affinity"
)

// Invalidator drops cached recommendation listings after a recompute.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Refresher recomputes every affinity profile on a fixed interval so
// decay keeps pulling idle users' scores down even without new traffic.
type Refresher struct {
	agg         *affinity.Aggregator
	invalidator Invalidator
	interval    time.Duration
}

func NewRefresher(agg *affinity.Aggregator, invalidator Invalidator, interval time.Duration) *Refresher {
	return &Refresher{agg: agg, invalidator: invalidator, interval: interval}
}

// Run blocks until ctx is cancelled. An interval of zero disables the
// loop entirely.
func (r *Refresher) Run(ctx context.Context) {
	if r.interval <= 0 {
		return
	}
	log := zlog.With().Str("component", "affinity_refresher").Logger()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("stopped")
			return
		case <-ticker.C:
			started := time.Now()
			sum, err := r.agg.RecomputeAll(ctx)
			if err != nil {
				log.Warn().Err(err).Msg("scheduled recompute aborted")
				continue
			}
			if r.invalidator != nil {
				if err := r.invalidator.Invalidate(ctx, ""); err != nil {
					log.Warn().Err(err).Msg("cache invalidation failed after recompute")
				}
			}
			log.Info().
				Int("users", sum.Users).
				Int("rows", sum.Rows).
				Int("failures", sum.Failures).
				Dur("took", time.Since(started)).
				Msg("scheduled recompute complete")
		}
	}
}
