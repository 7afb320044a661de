package reco

import (
	"sort"
	"time"

	"github.com/apothio/storefront-reco/internal/domain"
)

const (
	// Inverse-age recency term, same shape as the trending score:
	// recencyBase / (1 + ageDays).
	recencyBase = 3.0

	// Bonus per candidate tag matching the caller-supplied context tags.
	contextBonus = 1.5
)

type scored struct {
	candidate domain.Candidate
	matches   int // context-tag matches, used by the tie-break
	createdAt int64
	productID string
}

// rank scores and orders candidates. Ordering is fully deterministic:
// score desc, then context matches desc, then created_at desc, then
// product_id asc.
func (s *Service) rank(products []domain.Product, profile map[string]float64, ctxTags map[string]struct{}) []domain.Candidate {
	now := s.clock.Now().UTC()
	nowDay := now.Truncate(24 * time.Hour)

	rows := make([]scored, 0, len(products))
	for _, p := range products {
		var affinity float64
		matches := 0
		for _, tag := range p.Tags {
			affinity += profile[tag]
			if _, ok := ctxTags[tag]; ok {
				matches++
			}
		}

		ageDays := nowDay.Sub(p.CreatedAt.UTC().Truncate(24 * time.Hour)).Hours() / 24
		if ageDays < 0 {
			ageDays = 0
		}
		recency := recencyBase / (1 + ageDays)

		c := domain.CandidateFromProduct(p)
		c.Score = affinity + recency + contextBonus*float64(matches)

		rows = append(rows, scored{
			candidate: c,
			matches:   matches,
			createdAt: p.CreatedAt.UnixNano(),
			productID: p.ID,
		})
	}

	sort.Slice(rows, func(i, j int) bool {
		if rows[i].candidate.Score != rows[j].candidate.Score {
			return rows[i].candidate.Score > rows[j].candidate.Score
		}
		if rows[i].matches != rows[j].matches {
			return rows[i].matches > rows[j].matches
		}
		if rows[i].createdAt != rows[j].createdAt {
			return rows[i].createdAt > rows[j].createdAt
		}
		return rows[i].productID < rows[j].productID
	})

	out := make([]domain.Candidate, len(rows))
	for i, r := range rows {
		out[i] = r.candidate
	}
	return out
}
