package affinity

import (
	"context"
	"time"

	"github.com/apothio/storefront-reco/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// EventSource reads the append-only interaction history.
type EventSource interface {
	ListByUser(ctx context.Context, userID string) ([]domain.Interaction, error)
	ListUserIDs(ctx context.Context) ([]string, error)
}

// ScoreSink persists a user's full affinity profile in one shot.
// ReplaceScores must swap the user's row set atomically: a concurrent
// reader sees either the old profile or the new one, never a mix.
type ScoreSink interface {
	ReplaceScores(ctx context.Context, userID string, scores map[string]float64, updatedAt time.Time) (int, error)
}
