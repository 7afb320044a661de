package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/apothio/storefront-reco/internal/domain"
	"github.com/apothio/storefront-reco/internal/infrastructure/messaging/rabbitmq"
	"github.com/apothio/storefront-reco/internal/transport/http/dto"
	"github.com/apothio/storefront-reco/internal/transport/http/response"
)

// InteractionRepo is the persistence surface of the ingest endpoint.
type InteractionRepo interface {
	Insert(ctx context.Context, i *domain.Interaction) error
}

// EventPublisher fans the recorded event out to interested consumers.
type EventPublisher interface {
	PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error
}

// NoopPublisher is used in dev when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishEvent(ctx context.Context, routingKey, messageID string, body []byte) error {
	return nil
}

type InteractionsHandler struct {
	repo InteractionRepo
	pub  EventPublisher
}

func NewInteractionsHandler(repo InteractionRepo, pub EventPublisher) *InteractionsHandler {
	return &InteractionsHandler{repo: repo, pub: pub}
}

// Create handles POST /interactions: validate, append one immutable row,
// fan out best-effort. No dedup here — that is the tracking client's job.
func (h *InteractionsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.InteractionReq
	if err := decodeJSON(r, &req); err != nil {
		response.Fail(w, http.StatusBadRequest, "invalid request body", "")
		return
	}
	if err := validateRequest(&req); err != nil {
		response.Err(w, err)
		return
	}

	ev := domain.Interaction{
		UserID:    req.UserID,
		EventType: domain.EventType(req.EventType),
		ItemID:    req.ItemID,
		ItemType:  domain.ItemType(req.ItemType),
		Tags:      req.Tags,
	}
	if ev.Tags == nil {
		ev.Tags = []string{}
	}

	if err := h.repo.Insert(r.Context(), &ev); err != nil {
		var ae *domain.AppError
		if errors.As(err, &ae) {
			response.Err(w, err)
			return
		}
		zlog.Error().Err(err).Msg("interaction insert failed")
		response.Fail(w, http.StatusInternalServerError, "failed to record interaction", err.Error())
		return
	}

	h.publish(ev)

	response.Data(w, http.StatusCreated, dto.InteractionResp{
		ID:        ev.ID,
		UserID:    ev.UserID,
		EventType: string(ev.EventType),
		ItemID:    ev.ItemID,
		ItemType:  string(ev.ItemType),
		Tags:      ev.Tags,
		CreatedAt: ev.CreatedAt,
	})
}

// publish is best-effort: a broker outage must not fail ingestion.
func (h *InteractionsHandler) publish(ev domain.Interaction) {
	body, err := json.Marshal(rabbitmq.InteractionRecordedPayload{
		EventID:   ev.ID,
		UserID:    ev.UserID,
		EventType: string(ev.EventType),
		ItemID:    ev.ItemID,
		ItemType:  string(ev.ItemType),
		CreatedAt: ev.CreatedAt,
	})
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := h.pub.PublishEvent(ctx, rabbitmq.RoutingKeyRecorded, ev.ID, body); err != nil {
		zlog.Warn().Err(err).Str("event_id", ev.ID).Msg("interaction publish failed")
	}
}
