package cache

import (
	"context"
	"sync"
	"time"

	"github.com/iqbalbaharum/anyix-swap/internal/jupiter"
	"github.com/iqbalbaharum/anyix-swap/internal/storage"
	"github.com/iqbalbaharum/anyix-swap/internal/types"
	"github.com/sirupsen/logrus"
)

type Pair = storage.RouteKey

// RouteStore persists route cache entries between restarts.
type RouteStore interface {
	SetRoutes(ctx context.Context, key storage.RouteKey, entry *types.RouteEntry) error
	GetAllRoutes(ctx context.Context) (map[storage.RouteKey]*types.RouteEntry, error)
}

// Target is a pair refreshed for a fixed ui amount.
type Target struct {
	Pair     Pair
	UIAmount float64
}

type RouteCache struct {
	Source   QuoteSource
	Decimals *DecimalsResolver
	Store    RouteStore
	Options  []jupiter.RequestOption
	Log      *logrus.Logger

	mutex   sync.RWMutex
	routes  map[Pair]*types.RouteEntry
	quoters sync.Map
}

func NewRouteCache(size int, source QuoteSource, decimals *DecimalsResolver, log *logrus.Logger) *RouteCache {
	if log == nil {
		log = logrus.New()
	}
	return &RouteCache{
		Source:   source,
		Decimals: decimals,
		Options:  []jupiter.RequestOption{jupiter.AsLegacyTransaction()},
		Log:      log,
		routes:   make(map[Pair]*types.RouteEntry, size),
	}
}

// MarkRoutesStale flags every cached quote of pairs as stale.
func (c *RouteCache) MarkRoutesStale(pairs []Pair) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for _, pair := range pairs {
		entry, ok := c.routes[pair]
		if !ok {
			continue
		}
		for i := range entry.Quotes {
			entry.Quotes[i].Stale = true
		}
	}
}

func (c *RouteCache) quoter(ctx context.Context, pair Pair) (Quoter, error) {
	if q, ok := c.quoters.Load(pair); ok {
		return q.(Quoter), nil
	}

	q, err := c.Decimals.NewQuoter(ctx, pair.Input, pair.Output)
	if err != nil {
		return Quoter{}, err
	}
	c.quoters.Store(pair, q)
	return q, nil
}

// Populate fetches a fresh quote for every pair. An existing entry has its
// counter bumped and its quotes replaced; a new entry starts at zero.
func (c *RouteCache) Populate(ctx context.Context, pairs []Pair, uiAmount float64) error {
	for _, pair := range pairs {
		q, err := c.quoter(ctx, pair)
		if err != nil {
			return err
		}

		quote, err := q.LookupRoutes(ctx, c.Source, uiAmount, c.Options...)
		if err != nil {
			return err
		}

		snapshot := c.update(pair, quote)
		if c.Store != nil {
			if err := c.Store.SetRoutes(ctx, pair, snapshot); err != nil {
				c.Log.Warnf("failed to persist routes for %s: %v", pair, err)
			}
		}
	}

	return nil
}

func (c *RouteCache) update(pair Pair, quote *jupiter.QuoteResponse) *types.RouteEntry {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	fresh := []types.CachedQuote{{Quote: *quote}}

	entry, ok := c.routes[pair]
	if !ok {
		entry = &types.RouteEntry{Counter: 0, Quotes: fresh}
		c.routes[pair] = entry
		return copyEntry(entry, len(entry.Quotes))
	}

	prev := entry.Counter
	entry.Counter++
	entry.Quotes = fresh
	c.Log.Infof("route_cache_update(old_counter=%d, new_counter=%d)", prev, entry.Counter)

	return copyEntry(entry, len(entry.Quotes))
}

// TopNRoutes returns the counter and up to n cached quotes for the pair.
func (c *RouteCache) TopNRoutes(pair Pair, n int) (uint64, []types.CachedQuote, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	entry, ok := c.routes[pair]
	if !ok {
		c.Log.Warnf("found no routes for input %s output %s", pair.Input, pair.Output)
		return 0, nil, false
	}

	snapshot := copyEntry(entry, n)
	return snapshot.Counter, snapshot.Quotes, true
}

// Restore loads persisted entries, keeping any already in memory.
func (c *RouteCache) Restore(ctx context.Context) (int, error) {
	if c.Store == nil {
		return 0, nil
	}

	routes, err := c.Store.GetAllRoutes(ctx)
	if err != nil {
		return 0, err
	}

	c.mutex.Lock()
	defer c.mutex.Unlock()

	restored := 0
	for pair, entry := range routes {
		if _, ok := c.routes[pair]; ok {
			continue
		}
		c.routes[pair] = entry
		restored++
	}
	return restored, nil
}

// Run refreshes targets every interval until ctx is done. Failed pairs are
// logged and retried on the next tick.
func (c *RouteCache) Run(ctx context.Context, interval time.Duration, targets []Target) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		for _, target := range targets {
			if err := c.Populate(ctx, []Pair{target.Pair}, target.UIAmount); err != nil {
				c.Log.Warnf("route refresh %s: %v", target.Pair, err)
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func copyEntry(entry *types.RouteEntry, n int) *types.RouteEntry {
	if n > len(entry.Quotes) || n < 0 {
		n = len(entry.Quotes)
	}
	quotes := make([]types.CachedQuote, n)
	copy(quotes, entry.Quotes[:n])
	return &types.RouteEntry{Counter: entry.Counter, Quotes: quotes}
}
