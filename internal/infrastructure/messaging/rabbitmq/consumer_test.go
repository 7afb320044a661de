package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRefresher struct {
	calls []string
	err   error
}

func (s *stubRefresher) RecomputeUser(ctx context.Context, userID string) (int, error) {
	s.calls = append(s.calls, userID)
	return 2, s.err
}

type stubInvalidator struct {
	calls []string
	err   error
}

func (s *stubInvalidator) Invalidate(ctx context.Context, userID string) error {
	s.calls = append(s.calls, userID)
	return s.err
}

func payload(t *testing.T, eventType, userID string) []byte {
	t.Helper()
	b, err := json.Marshal(InteractionRecordedPayload{
		EventID:   "int_1",
		UserID:    userID,
		EventType: eventType,
		ItemID:    "prod-1",
		ItemType:  "product",
		CreatedAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return b
}

func TestConsumer_HandleMessage_PurchaseTriggersRefresh(t *testing.T) {
	ref := &stubRefresher{}
	inv := &stubInvalidator{}
	c := NewConsumer("amqp://unused", "", ref, inv)

	err := c.handleMessage(context.Background(), payload(t, "purchase", "u1"))
	require.NoError(t, err)
	assert.Equal(t, []string{"u1"}, ref.calls)
	assert.Equal(t, []string{"u1"}, inv.calls)
}

func TestConsumer_HandleMessage_WeakSignalsIgnored(t *testing.T) {
	ref := &stubRefresher{}
	inv := &stubInvalidator{}
	c := NewConsumer("amqp://unused", "", ref, inv)

	for _, et := range []string{"view", "click", "add_to_cart"} {
		require.NoError(t, c.handleMessage(context.Background(), payload(t, et, "u1")))
	}
	assert.Empty(t, ref.calls)
	assert.Empty(t, inv.calls)
}

func TestConsumer_HandleMessage_Errors(t *testing.T) {
	t.Run("malformed_body", func(t *testing.T) {
		c := NewConsumer("amqp://unused", "", &stubRefresher{}, &stubInvalidator{})
		assert.Error(t, c.handleMessage(context.Background(), []byte("{broken")))
	})

	t.Run("missing_user_is_skipped", func(t *testing.T) {
		ref := &stubRefresher{}
		c := NewConsumer("amqp://unused", "", ref, &stubInvalidator{})
		require.NoError(t, c.handleMessage(context.Background(), payload(t, "purchase", "")))
		assert.Empty(t, ref.calls)
	})

	t.Run("recompute_failure_propagates_for_nack", func(t *testing.T) {
		ref := &stubRefresher{err: errors.New("db down")}
		c := NewConsumer("amqp://unused", "", ref, &stubInvalidator{})
		assert.Error(t, c.handleMessage(context.Background(), payload(t, "purchase", "u1")))
	})

	t.Run("invalidate_failure_is_tolerated", func(t *testing.T) {
		inv := &stubInvalidator{err: errors.New("redis down")}
		c := NewConsumer("amqp://unused", "", &stubRefresher{}, inv)
		assert.NoError(t, c.handleMessage(context.Background(), payload(t, "purchase", "u1")))
	})
}

func TestConsumer_DefaultExchange(t *testing.T) {
	c := NewConsumer("amqp://unused", "", &stubRefresher{}, &stubInvalidator{})
	assert.Equal(t, DefaultExchange, c.exchange)
}
