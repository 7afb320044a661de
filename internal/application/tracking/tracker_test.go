package tracking

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/apothio/storefront-reco/internal/domain"
)

type fakeClock struct{ t time.Time }

func (c fakeClock) Now() time.Time { return c.t }

type captureRecorder struct {
	mu     sync.Mutex
	events []domain.Interaction
	err    error
}

func (r *captureRecorder) Record(ctx context.Context, i domain.Interaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, i)
	return nil
}

func (r *captureRecorder) recorded() []domain.Interaction {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.Interaction(nil), r.events...)
}

func authedSession() Session {
	return Session{UserID: "u1"}
}

func newTestTracker(rec Recorder) *Tracker {
	return New(authedSession(), rec, fakeClock{t: time.Now()}, 10*time.Millisecond)
}

func TestTracker_DebouncesBurst(t *testing.T) {
	rec := &captureRecorder{}
	tr := newTestTracker(rec)
	defer tr.Close()

	for i := 0; i < 5; i++ {
		tr.Track(domain.EventClick, "prod-1", domain.ItemProduct, []string{"ceramics"})
	}
	tr.Flush()

	events := rec.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventClick, events[0].EventType)
	assert.Equal(t, "u1", events[0].UserID)
	assert.Equal(t, []string{"ceramics"}, events[0].Tags)
}

func TestTracker_SeparateKeysDoNotCoalesce(t *testing.T) {
	rec := &captureRecorder{}
	tr := newTestTracker(rec)
	defer tr.Close()

	tr.Track(domain.EventClick, "prod-1", domain.ItemProduct, nil)
	tr.Track(domain.EventClick, "prod-2", domain.ItemProduct, nil)
	tr.Track(domain.EventAddToCart, "prod-1", domain.ItemProduct, nil)
	tr.Flush()

	assert.Len(t, rec.recorded(), 3)
}

func TestTracker_ViewDedupPerSession(t *testing.T) {
	rec := &captureRecorder{}
	tr := newTestTracker(rec)
	defer tr.Close()

	tr.Track(domain.EventView, "prod-1", domain.ItemProduct, nil)
	tr.Flush()
	// Second sighting of the same item: suppressed.
	tr.Track(domain.EventView, "prod-1", domain.ItemProduct, nil)
	tr.Flush()
	// Stronger signals are only debounced, never session-deduped.
	tr.Track(domain.EventClick, "prod-1", domain.ItemProduct, nil)
	tr.Flush()
	tr.Track(domain.EventClick, "prod-1", domain.ItemProduct, nil)
	tr.Flush()

	events := rec.recorded()
	require.Len(t, events, 3)
	assert.Equal(t, domain.EventView, events[0].EventType)
	assert.Equal(t, domain.EventClick, events[1].EventType)
	assert.Equal(t, domain.EventClick, events[2].EventType)
}

func TestTracker_FailedViewEmitIsRetryable(t *testing.T) {
	rec := &captureRecorder{err: errors.New("store down")}
	tr := newTestTracker(rec)
	defer tr.Close()

	tr.Track(domain.EventView, "prod-1", domain.ItemProduct, nil)
	tr.Flush()

	// The failed emit must not mark the view as seen.
	rec.mu.Lock()
	rec.err = nil
	rec.mu.Unlock()

	tr.Track(domain.EventView, "prod-1", domain.ItemProduct, nil)
	tr.Flush()

	assert.Len(t, rec.recorded(), 1)
}

func TestTracker_AnonymousAndExpiredSessionsNoOp(t *testing.T) {
	now := time.Now()

	t.Run("anonymous", func(t *testing.T) {
		rec := &captureRecorder{}
		tr := New(Session{}, rec, fakeClock{t: now}, 10*time.Millisecond)
		defer tr.Close()
		tr.Track(domain.EventPurchase, "prod-1", domain.ItemProduct, nil)
		tr.Flush()
		assert.Empty(t, rec.recorded())
	})

	t.Run("expired", func(t *testing.T) {
		rec := &captureRecorder{}
		sess := Session{UserID: "u1", ExpiresAt: now.Add(-time.Minute)}
		tr := New(sess, rec, fakeClock{t: now}, 10*time.Millisecond)
		defer tr.Close()
		tr.Track(domain.EventPurchase, "prod-1", domain.ItemProduct, nil)
		tr.Flush()
		assert.Empty(t, rec.recorded())
	})
}

func TestTracker_DropsMalformedCalls(t *testing.T) {
	rec := &captureRecorder{}
	tr := newTestTracker(rec)
	defer tr.Close()

	tr.Track("hover", "prod-1", domain.ItemProduct, nil)
	tr.Track(domain.EventClick, "", domain.ItemProduct, nil)
	tr.Track(domain.EventClick, "prod-1", "banner", nil)
	tr.Flush()

	assert.Empty(t, rec.recorded())
}

func TestTracker_CloseDropsPending(t *testing.T) {
	rec := &captureRecorder{}
	tr := New(authedSession(), rec, fakeClock{t: time.Now()}, time.Hour)

	tr.Track(domain.EventClick, "prod-1", domain.ItemProduct, nil)
	tr.Close()
	tr.Flush()

	assert.Empty(t, rec.recorded())

	// Track after close is a no-op, not a panic.
	tr.Track(domain.EventClick, "prod-2", domain.ItemProduct, nil)
	tr.Flush()
	assert.Empty(t, rec.recorded())
}
