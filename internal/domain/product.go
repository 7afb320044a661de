package domain

import "time"

// Product is the catalog row the ranker scores against. The catalog is a
// read-only collaborator here; this service never writes products.
type Product struct {
	ID           string
	Name         string
	Price        float64
	ThumbnailURL string
	Tags         []string
	CreatedAt    time.Time
}

// Candidate is a scored, displayable recommendation. Ephemeral: computed
// per request, never persisted outside the client cache.
type Candidate struct {
	ProductID    string   `json:"product_id"`
	Name         string   `json:"name"`
	Price        float64  `json:"price"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Tags         []string `json:"tags"`
	Score        float64  `json:"score"`
}

// CandidateFromProduct builds an unscored candidate from a catalog row.
func CandidateFromProduct(p Product) Candidate {
	return Candidate{
		ProductID:    p.ID,
		Name:         p.Name,
		Price:        p.Price,
		ThumbnailURL: p.ThumbnailURL,
		Tags:         p.Tags,
	}
}
