package soa

import (
	"context"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/haukened/rr-zones/internal/dns/common/utils"
	"github.com/haukened/rr-zones/internal/dns/domain"
)

// NegativeCache remembers names the wrapped provider had no authority for,
// so repeated lookups of unknown names stay off the backing store. Positive
// answers are not cached here; the zone cache keeps those itself.
type NegativeCache struct {
	next      Provider
	lru       *lru.Cache[string, struct{}]
	hits      uint64
	misses    uint64
	evictions uint64
}

// NewNegativeCache wraps next with a negative cache of the given size. A
// size <= 0 disables caching and returns next unchanged.
func NewNegativeCache(next Provider, size int) (Provider, error) {
	if size <= 0 {
		return next, nil
	}
	nc := &NegativeCache{next: next}
	cache, err := lru.NewWithEvict(size, func(string, struct{}) {
		atomic.AddUint64(&nc.evictions, 1)
	})
	if err != nil {
		return nil, err
	}
	nc.lru = cache
	return nc, nil
}

func (c *NegativeCache) SOA(ctx context.Context, name string) (domain.Authority, bool, error) {
	name = utils.CanonicalDNSName(name)
	if _, ok := c.lru.Get(name); ok {
		atomic.AddUint64(&c.hits, 1)
		return domain.Authority{}, false, nil
	}
	atomic.AddUint64(&c.misses, 1)

	a, ok, err := c.next.SOA(ctx, name)
	if err != nil {
		return domain.Authority{}, false, err
	}
	if !ok {
		c.lru.Add(name, struct{}{})
	}
	return a, ok, nil
}

// Purge forgets every cached miss. Call it whenever zones are added.
func (c *NegativeCache) Purge() { c.lru.Purge() }

// Len returns the number of cached misses.
func (c *NegativeCache) Len() int { return c.lru.Len() }

// Stats returns cumulative hit/miss/eviction counters.
func (c *NegativeCache) Stats() (hits, misses, evictions uint64) {
	return atomic.LoadUint64(&c.hits), atomic.LoadUint64(&c.misses), atomic.LoadUint64(&c.evictions)
}
