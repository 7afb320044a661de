package tracking

import (
	"context"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"

	"github.com/apothio/storefront-reco/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// Recorder delivers one interaction to the event store.
type Recorder interface {
	Record(ctx context.Context, i domain.Interaction) error
}

const (
	DefaultDebounce    = 1 * time.Second
	defaultEmitTimeout = 3 * time.Second
)

// Tracker classifies, debounces, and deduplicates outgoing interaction
// events. Fire-and-forget: Track never blocks on I/O and never propagates
// an error into the caller; tracking must not interrupt the primary task.
//
// Each (event, item, itemType) key owns at most one pending timer. A burst
// of calls for the same key collapses to one emitted event, the timer
// restarting on every call. view events are additionally deduplicated for
// the tracker's lifetime (one successful view emit per item); the stronger
// signals are only debounced.
type Tracker struct {
	session  Session
	rec      Recorder
	clock    Clock
	debounce time.Duration

	mu     sync.Mutex
	timers map[string]*time.Timer
	seen   map[string]struct{}
	closed bool
	wg     sync.WaitGroup
}

func New(session Session, rec Recorder, clock Clock, debounce time.Duration) *Tracker {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Tracker{
		session:  session,
		rec:      rec,
		clock:    clock,
		debounce: debounce,
		timers:   make(map[string]*time.Timer),
		seen:     make(map[string]struct{}),
	}
}

func (t *Tracker) Track(eventType domain.EventType, itemID string, itemType domain.ItemType, tags []string) {
	if !t.session.Authenticated(t.clock.Now()) {
		return
	}
	if !eventType.Valid() || !itemType.Valid() || itemID == "" {
		zlog.Debug().
			Str("event_type", string(eventType)).
			Str("item_id", itemID).
			Msg("dropping malformed track call")
		return
	}

	key := trackKey(eventType, itemID, itemType)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return
	}
	if eventType == domain.EventView {
		if _, done := t.seen[key]; done {
			return
		}
	}

	// Cancel-then-set: at most one pending timer per key at any instant.
	// Stop() reporting true means the old callback will never run, so its
	// WaitGroup slot is released here.
	if tm, ok := t.timers[key]; ok {
		if tm.Stop() {
			t.wg.Done()
		}
	}

	ev := domain.Interaction{
		UserID:    t.session.UserID,
		EventType: eventType,
		ItemID:    itemID,
		ItemType:  itemType,
		Tags:      append([]string(nil), tags...),
	}

	t.wg.Add(1)
	var tm *time.Timer
	tm = time.AfterFunc(t.debounce, func() {
		defer t.wg.Done()
		t.emit(key, tm, ev)
	})
	t.timers[key] = tm
}

func (t *Tracker) emit(key string, tm *time.Timer, ev domain.Interaction) {
	ctx, cancel := context.WithTimeout(context.Background(), defaultEmitTimeout)
	defer cancel()

	err := t.rec.Record(ctx, ev)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timers[key] == tm {
		delete(t.timers, key)
	}
	if err != nil {
		// Logged and swallowed; an expired session mid-flight is a
		// silent no-op, not a user-visible failure.
		zlog.Warn().Err(err).
			Str("event_type", string(ev.EventType)).
			Str("item_id", ev.ItemID).
			Msg("interaction emit failed")
		return
	}
	if ev.EventType == domain.EventView {
		t.seen[key] = struct{}{}
	}
}

// Flush waits for all pending emissions to run. Test hook.
func (t *Tracker) Flush() {
	t.wg.Wait()
}

// Close cancels every pending timer; events not yet emitted are dropped.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	for key, tm := range t.timers {
		if tm.Stop() {
			t.wg.Done()
		}
		delete(t.timers, key)
	}
}

func trackKey(eventType domain.EventType, itemID string, itemType domain.ItemType) string {
	return string(eventType) + "|" + itemID + "|" + string(itemType)
}
