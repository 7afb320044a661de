package affinity

import (
	"context"
	"math"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/apothio/storefront-reco/internal/domain"
)

// Event-type weights. The ordering purchase > add_to_cart > click > view
// is a contract; the exact ratios are tuning.
var eventWeights = map[domain.EventType]float64{
	domain.EventView:      1.0,
	domain.EventClick:     2.0,
	domain.EventAddToCart: 3.0,
	domain.EventPurchase:  5.0,
}

// Aggregator folds a user's interaction history into per-tag affinity
// scores. Decay is exponential with a configurable half-life, and event
// ages are measured in whole UTC days, so recomputing twice over the same
// history (same clock day) yields bit-identical scores.
type Aggregator struct {
	events   EventSource
	scores   ScoreSink
	clock    Clock
	halfLife float64 // days
}

type Summary struct {
	Users    int `json:"users"`
	Rows     int `json:"rows"`
	Failures int `json:"failures"`
}

func New(events EventSource, scores ScoreSink, clock Clock, halfLifeDays float64) *Aggregator {
	if halfLifeDays <= 0 {
		halfLifeDays = 30
	}
	return &Aggregator{events: events, scores: scores, clock: clock, halfLife: halfLifeDays}
}

// RecomputeUser rebuilds one user's profile from scratch and returns the
// number of rows written. The write is all-or-nothing for the user.
func (a *Aggregator) RecomputeUser(ctx context.Context, userID string) (int, error) {
	history, err := a.events.ListByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	now := a.clock.Now().UTC()
	scores := a.fold(history, now)

	return a.scores.ReplaceScores(ctx, userID, scores, now)
}

// RecomputeAll runs RecomputeUser for every user with recorded history.
// A failure for one user does not stop the batch; failures are counted
// and reported, not swallowed.
func (a *Aggregator) RecomputeAll(ctx context.Context) (Summary, error) {
	userIDs, err := a.events.ListUserIDs(ctx)
	if err != nil {
		return Summary{}, err
	}

	var sum Summary
	for _, uid := range userIDs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		rows, err := a.RecomputeUser(ctx, uid)
		if err != nil {
			zlog.Warn().Err(err).Str("user_id", uid).Msg("affinity recompute failed")
			sum.Failures++
			continue
		}
		sum.Users++
		sum.Rows += rows
	}
	return sum, nil
}

// fold accumulates decayed weights per tag. An event contributes to every
// tag it carries. Ages are whole days relative to the reference day, so an
// event never outscores an identical newer one.
func (a *Aggregator) fold(history []domain.Interaction, ref time.Time) map[string]float64 {
	refDay := ref.Truncate(24 * time.Hour)
	scores := make(map[string]float64)

	for _, ev := range history {
		w, ok := eventWeights[ev.EventType]
		if !ok {
			continue
		}
		eventDay := ev.CreatedAt.UTC().Truncate(24 * time.Hour)
		ageDays := refDay.Sub(eventDay).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		decayed := w * math.Exp2(-ageDays/a.halfLife)

		for _, tag := range ev.Tags {
			if tag == "" {
				continue
			}
			scores[tag] += decayed
		}
	}
	return scores
}
