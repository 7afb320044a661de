package recocache

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	zlog "github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"

	"github.com/apothio/storefront-reco/internal/application/reco"
	"github.com/apothio/storefront-reco/internal/domain"
)

type Clock interface {
	Now() time.Time
}

// Store is the pluggable key-value capability behind the cache: MemStore
// in tests and single-process deployments, the Redis client otherwise.
type Store interface {
	Get(ctx context.Context, key string, dest any) (bool, error)
	Set(ctx context.Context, key string, val any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// Fetcher is the personalized ranker call.
type Fetcher interface {
	GetRecommendations(ctx context.Context, userID string, opts reco.Options) reco.Result
}

// Catalog supplies the generic most-recently-added fallback listing.
type Catalog interface {
	ListLatest(ctx context.Context, limit int) ([]domain.Product, error)
}

// Entry is one cached listing. Freshness is judged against FetchedAt, not
// the store's TTL: entries are stored with double the freshness window so
// a stale copy survives to serve as a circuit breaker.
type Entry struct {
	Items     []domain.Candidate `json:"items"`
	FetchedAt time.Time          `json:"fetched_at"`
}

const (
	DefaultTTL          = 5 * time.Minute
	defaultFetchTimeout = 3 * time.Second
)

// errThrottled marks a flight suppressed by the attempt window; callers
// degrade to a stale entry or the generic listing.
var errThrottled = errors.New("recs fetch throttled")

// Cache shields the ranker from repeated identical requests and owns the
// fallback chain: fresh entry, personalized fetch, stale entry, generic
// latest listing, empty. A personalized result with zero items counts as
// unavailable, not as a valid empty listing.
type Cache struct {
	store   Store
	fetcher Fetcher
	catalog Catalog
	clock   Clock
	ttl     time.Duration
	timeout time.Duration

	group    singleflight.Group
	mu       sync.Mutex
	attempts map[string]time.Time
}

func New(store Store, fetcher Fetcher, catalog Catalog, clock Clock, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{
		store:    store,
		fetcher:  fetcher,
		catalog:  catalog,
		clock:    clock,
		ttl:      ttl,
		timeout:  defaultFetchTimeout,
		attempts: make(map[string]time.Time),
	}
}

// Fetch returns a displayable listing for the given request shape. It
// never returns an error: every failure path degrades to the next link of
// the fallback chain, ending at an empty slice.
func (c *Cache) Fetch(ctx context.Context, userID, contextLabel string, tags []string, limit int) []domain.Candidate {
	if limit <= 0 {
		limit = reco.DefaultLimit
	}
	if limit > reco.MaxLimit {
		limit = reco.MaxLimit
	}

	// Anonymous browsing skips personalization entirely.
	if userID == "" {
		return c.fallback(ctx, limit)
	}

	tags = normalizeTags(tags)
	key := cacheKey(userID, contextLabel, tags, limit)
	now := c.clock.Now()

	entry, found := c.lookup(ctx, key)
	if found && now.Sub(entry.FetchedAt) < c.ttl {
		return clip(entry.Items, limit)
	}

	// Concurrent callers for the same key join one flight. The flight owns
	// the cache write; it runs on a detached context so one caller's
	// teardown cannot poison the shared result. The admit check lives
	// inside the flight so joiners share the one attempt instead of being
	// throttled past it.
	v, ferr, _ := c.group.Do(key, func() (any, error) {
		if !c.admit(key, c.clock.Now()) {
			return nil, errThrottled
		}

		fctx, cancel := context.WithTimeout(context.Background(), c.timeout)
		defer cancel()

		res := c.fetcher.GetRecommendations(fctx, userID, reco.Options{
			Context: contextLabel,
			Tags:    tags,
			Limit:   limit,
		})
		if res.Status == reco.StatusOK && len(res.Items) > 0 {
			e := Entry{Items: res.Items, FetchedAt: c.clock.Now()}
			if err := c.store.Set(fctx, key, e, 2*c.ttl); err != nil {
				zlog.Warn().Err(err).Str("key", key).Msg("recs cache set failed")
			}
		}
		return res, nil
	})

	// A torn-down caller discards the outcome without touching any state
	// of its own.
	if ctx.Err() != nil {
		return nil
	}

	if ferr == nil {
		res := v.(reco.Result)
		switch {
		case res.Status == reco.StatusOK && len(res.Items) > 0:
			return clip(res.Items, limit)
		case res.Status == reco.StatusFailed:
			zlog.Debug().Str("kind", string(res.Err)).Str("key", key).Msg("personalized fetch failed")
		}
	}

	// Empty or failed: stale entry first, then the generic listing.
	if found {
		return clip(entry.Items, limit)
	}
	return c.fallback(ctx, limit)
}

// Invalidate drops cached listings for one user, or for everyone when
// userID is empty, so the next Fetch bypasses the freshness window.
func (c *Cache) Invalidate(ctx context.Context, userID string) error {
	c.mu.Lock()
	for k := range c.attempts {
		if strings.HasPrefix(k, userKeyPrefix(userID)) {
			delete(c.attempts, k)
		}
	}
	c.mu.Unlock()
	return c.store.DeletePrefix(ctx, userKeyPrefix(userID))
}

func (c *Cache) lookup(ctx context.Context, key string) (Entry, bool) {
	var e Entry
	found, err := c.store.Get(ctx, key, &e)
	if err != nil {
		zlog.Warn().Err(err).Str("key", key).Msg("recs cache get failed")
		return Entry{}, false
	}
	return e, found
}

// admit records an upstream attempt for the key unless one already
// happened inside the current window.
func (c *Cache) admit(key string, now time.Time) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if last, ok := c.attempts[key]; ok && now.Sub(last) < c.ttl {
		return false
	}
	c.attempts[key] = now

	// Opportunistic pruning keeps the map from growing with dead keys.
	for k, at := range c.attempts {
		if now.Sub(at) >= 2*c.ttl {
			delete(c.attempts, k)
		}
	}
	return true
}

func (c *Cache) fallback(ctx context.Context, limit int) []domain.Candidate {
	products, err := c.catalog.ListLatest(ctx, limit)
	if err != nil {
		zlog.Warn().Err(err).Msg("fallback listing failed")
		return nil
	}
	out := make([]domain.Candidate, 0, len(products))
	for _, p := range products {
		out = append(out, domain.CandidateFromProduct(p))
	}
	return out
}

func clip(items []domain.Candidate, limit int) []domain.Candidate {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
