package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/apothio/storefront-reco/internal/application/reco"
	"github.com/apothio/storefront-reco/internal/domain"
	"github.com/apothio/storefront-reco/internal/transport/http/dto"
	"github.com/apothio/storefront-reco/internal/transport/http/response"
)

type RecommendationsHandler struct {
	ranker *reco.Service
}

func NewRecommendationsHandler(ranker *reco.Service) *RecommendationsHandler {
	return &RecommendationsHandler{ranker: ranker}
}

// Get handles GET /recommendations?user_id&context&tags&limit.
// Parameter validation lives here, at the external boundary; the ranker
// itself never rejects a request it can serve.
func (h *RecommendationsHandler) Get(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	userID := strings.TrimSpace(q.Get("user_id"))
	if userID == "" {
		response.Err(w, domain.ErrValidationMeta("invalid query param", map[string]string{
			"user_id": "required",
		}))
		return
	}

	contextLabel := strings.TrimSpace(q.Get("context"))
	if contextLabel == "" {
		contextLabel = "general"
	}

	var tags []string
	if raw := q.Get("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	limit := reco.DefaultLimit
	if raw := q.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > reco.MaxLimit {
			response.Err(w, domain.ErrValidationMeta("invalid query param", map[string]string{
				"limit": "must be a number between 1 and 20",
			}))
			return
		}
		limit = parsed
	}

	res := h.ranker.GetRecommendations(r.Context(), userID, reco.Options{
		Context: contextLabel,
		Tags:    tags,
		Limit:   limit,
	})

	if res.Status == reco.StatusFailed {
		switch res.Err {
		case reco.ErrorAuth:
			response.Fail(w, http.StatusUnauthorized, "unauthorized", "")
		case reco.ErrorValidation:
			response.Fail(w, http.StatusBadRequest, "invalid request parameters", "")
		case reco.ErrorRateLimited:
			response.Fail(w, http.StatusTooManyRequests, "rate limit exceeded", "")
		default:
			response.Fail(w, http.StatusInternalServerError, "failed to get recommendations", string(res.Err))
		}
		return
	}

	items := res.Items
	if items == nil {
		items = []domain.Candidate{}
	}

	// An empty personalized result is a valid 200; the client cache owns
	// the fallback decision.
	response.JSON(w, http.StatusOK, dto.RecommendationsResp{
		Success: true,
		Data:    items,
		Context: contextLabel,
		UserID:  userID,
		Total:   len(items),
	})
}
