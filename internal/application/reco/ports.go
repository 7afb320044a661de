package reco

import (
	"context"
	"time"

	"github.com/apothio/storefront-reco/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// ProfileSource returns a user's tag affinity map. An empty map means the
// user has no personalization signal at all.
type ProfileSource interface {
	GetProfile(ctx context.Context, userID string) (map[string]float64, error)
}

// CandidateSource fetches catalog rows carrying at least one of the given
// tags, newest first.
type CandidateSource interface {
	ListByTags(ctx context.Context, tags []string, limit int) ([]domain.Product, error)
}
