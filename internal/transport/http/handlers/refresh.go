package handlers

import (
	"context"
	"net/http"

	zlog "github.com/rs/zerolog/log"

	"github.com/apothio/storefront-reco/internal/application/affinity"
	"github.com/apothio/storefront-reco/internal/transport/http/dto"
	"github.com/apothio/storefront-reco/internal/transport/http/response"
)

// Refresher recomputes affinity profiles on demand.
type Refresher interface {
	RecomputeUser(ctx context.Context, userID string) (int, error)
	RecomputeAll(ctx context.Context) (affinity.Summary, error)
}

// Invalidator drops cached recommendation listings after a recompute.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

type RefreshHandler struct {
	refresher   Refresher
	invalidator Invalidator
}

func NewRefreshHandler(refresher Refresher, invalidator Invalidator) *RefreshHandler {
	return &RefreshHandler{refresher: refresher, invalidator: invalidator}
}

// Refresh handles POST /recommendations/refresh. An empty or absent body
// recomputes every user; a body with user_id recomputes just that user.
func (h *RefreshHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req dto.RefreshReq
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			response.Fail(w, http.StatusBadRequest, "invalid request body", "")
			return
		}
	}

	var resp dto.RefreshResp
	if req.UserID != "" {
		rows, err := h.refresher.RecomputeUser(r.Context(), req.UserID)
		if err != nil {
			zlog.Error().Err(err).Str("user_id", req.UserID).Msg("refresh failed")
			response.Fail(w, http.StatusInternalServerError, "failed to refresh recommendations", "")
			return
		}
		resp = dto.RefreshResp{Users: 1, Rows: rows}
	} else {
		sum, err := h.refresher.RecomputeAll(r.Context())
		if err != nil {
			zlog.Error().Err(err).Msg("refresh failed")
			response.Fail(w, http.StatusInternalServerError, "failed to refresh recommendations", "")
			return
		}
		resp = dto.RefreshResp{Users: sum.Users, Rows: sum.Rows, Failures: sum.Failures}
	}

	if h.invalidator != nil {
		if err := h.invalidator.Invalidate(r.Context(), req.UserID); err != nil {
			zlog.Warn().Err(err).Str("user_id", req.UserID).Msg("cache invalidation failed after refresh")
		}
	}

	response.Data(w, http.StatusOK, resp)
}
