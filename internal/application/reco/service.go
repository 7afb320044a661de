package reco

import (
	"context"
	"errors"
	"strings"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/apothio/storefront-reco/internal/domain"
)

const (
	DefaultLimit = 6
	MaxLimit     = 20

	// Candidate fan-out: fetch more rows than requested so ranking has
	// something to reorder, capped to keep the query bounded.
	candidateFactor = 10
	candidateCap    = 200
)

type Options struct {
	Context string
	Tags    []string
	Limit   int
}

// Service is the recommendation ranker. Stateless per call; all state
// lives in the affinity table and the catalog. It never panics and never
// returns a Go error: outcomes are encoded in Result so callers can pick
// the right fallback path.
type Service struct {
	profiles ProfileSource
	products CandidateSource
	clock    Clock
	timeout  time.Duration
}

func New(profiles ProfileSource, products CandidateSource, clock Clock, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Service{profiles: profiles, products: products, clock: clock, timeout: timeout}
}

// GetRecommendations blends stored affinity with recency and context-tag
// overlap. StatusEmpty means "no personalization signal" — the caller
// falls back to a generic listing; it is not an error.
func (s *Service) GetRecommendations(ctx context.Context, userID string, opts Options) Result {
	if strings.TrimSpace(userID) == "" {
		return failed(ErrorValidation)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	profile, err := s.profiles.GetProfile(ctx, userID)
	if err != nil {
		return failed(kindOf(err))
	}
	if len(profile) == 0 {
		return empty()
	}

	ctxTags := make(map[string]struct{}, len(opts.Tags))
	queryTags := make([]string, 0, len(profile)+len(opts.Tags))
	for tag := range profile {
		queryTags = append(queryTags, tag)
	}
	for _, tag := range opts.Tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if _, dup := ctxTags[tag]; dup {
			continue
		}
		ctxTags[tag] = struct{}{}
		if _, known := profile[tag]; !known {
			queryTags = append(queryTags, tag)
		}
	}

	pool := limit * candidateFactor
	if pool > candidateCap {
		pool = candidateCap
	}

	products, err := s.products.ListByTags(ctx, queryTags, pool)
	if err != nil {
		zlog.Warn().Err(err).Str("user_id", userID).Msg("candidate query failed")
		return failed(kindOf(err))
	}
	if len(products) == 0 {
		return empty()
	}

	ranked := s.rank(products, profile, ctxTags)
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ok(ranked)
}

// kindOf maps transport-level failures onto the error taxonomy. A timed
// out or cancelled data query is indistinguishable from an upstream
// outage as far as the caller's fallback decision goes.
func kindOf(err error) ErrorKind {
	var ae *domain.AppError
	if errors.As(err, &ae) {
		switch ae.Code {
		case domain.CodeUnauthorized:
			return ErrorAuth
		case domain.CodeValidation:
			return ErrorValidation
		case domain.CodeRateLimited:
			return ErrorRateLimited
		}
	}
	return ErrorUpstream
}
