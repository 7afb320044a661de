package dto

import "github.com/apothio/storefront-reco/internal/domain"

// RecommendationsResp is the GET /recommendations success body. The
// context and user_id echo lets clients correlate cached responses.
type RecommendationsResp struct {
	Success bool               `json:"success"`
	Data    []domain.Candidate `json:"data"`
	Context string             `json:"context"`
	UserID  string             `json:"user_id"`
	Total   int                `json:"total"`
}

// RefreshReq is the optional POST /recommendations/refresh body.
type RefreshReq struct {
	UserID string `json:"user_id,omitempty"`
}

// RefreshResp reports what the recompute touched.
type RefreshResp struct {
	Users    int `json:"users"`
	Rows     int `json:"rows"`
	Failures int `json:"failures"`
}
