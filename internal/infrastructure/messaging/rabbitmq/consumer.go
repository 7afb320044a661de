package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	zlog "github.com/rs/zerolog/log"

	"github.com/apothio/storefront-reco/internal/domain"
)

// InteractionRecordedPayload is the body published on interaction.recorded.
type InteractionRecordedPayload struct {
	EventID   string    `json:"event_id"`
	UserID    string    `json:"user_id"`
	EventType string    `json:"event_type"`
	ItemID    string    `json:"item_id"`
	ItemType  string    `json:"item_type"`
	CreatedAt time.Time `json:"created_at"`
}

// Refresher recomputes one user's affinity profile.
type Refresher interface {
	RecomputeUser(ctx context.Context, userID string) (int, error)
}

// Invalidator drops a user's cached recommendation listings.
type Invalidator interface {
	Invalidate(ctx context.Context, userID string) error
}

// Consumer reacts to purchase events by refreshing the buyer's affinity
// profile and busting their cached listings, so post-checkout
// recommendations reflect what was just bought.
type Consumer struct {
	connURL     string
	exchange    string
	refresher   Refresher
	invalidator Invalidator
}

func NewConsumer(connURL, exchange string, refresher Refresher, invalidator Invalidator) *Consumer {
	if exchange == "" {
		exchange = DefaultExchange
	}
	return &Consumer{
		connURL:     connURL,
		exchange:    exchange,
		refresher:   refresher,
		invalidator: invalidator,
	}
}

func (c *Consumer) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
			if err := c.connectAndConsume(ctx); err != nil {
				zlog.Warn().Err(err).Msg("rabbit consumer error, retrying in 5s")
				select {
				case <-ctx.Done():
					return
				case <-time.After(5 * time.Second):
				}
			}
		}
	}
}

func (c *Consumer) connectAndConsume(ctx context.Context) error {
	conn, err := amqp.Dial(c.connURL)
	if err != nil {
		return err
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		return err
	}
	defer ch.Close()

	if err := ch.ExchangeDeclare(c.exchange, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	q, err := ch.QueueDeclare(
		"reco-service.refresh", // name
		true,                   // durable
		false,                  // delete when unused
		false,                  // exclusive
		false,                  // no-wait
		nil,                    // arguments
	)
	if err != nil {
		return err
	}

	if err := ch.QueueBind(q.Name, RoutingKeyRecorded, c.exchange, false, nil); err != nil {
		return err
	}

	msgs, err := ch.Consume(q.Name, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	zlog.Info().Str("queue", q.Name).Msg("refresh consumer started")

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return amqp.ErrClosed
			}

			if err := c.handleMessage(ctx, d.Body); err != nil {
				zlog.Warn().Err(err).Msg("refresh message failed")
				_ = d.Nack(false, false)
			} else {
				_ = d.Ack(false)
			}
		}
	}
}

func (c *Consumer) handleMessage(ctx context.Context, body []byte) error {
	var payload InteractionRecordedPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return err
	}

	// Only purchases warrant an immediate recompute; weaker signals wait
	// for the scheduled pass.
	if domain.EventType(payload.EventType) != domain.EventPurchase || payload.UserID == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	rows, err := c.refresher.RecomputeUser(ctx, payload.UserID)
	if err != nil {
		return err
	}
	if err := c.invalidator.Invalidate(ctx, payload.UserID); err != nil {
		zlog.Warn().Err(err).Str("user_id", payload.UserID).Msg("cache invalidation failed")
	}

	zlog.Info().Str("user_id", payload.UserID).Int("rows", rows).Msg("post-purchase affinity refresh")
	return nil
}
