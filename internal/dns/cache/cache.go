// Package cache implements a TTL-aware store of resolved resource
// records, keyed by name and record type, independent of the position
// in any particular wire message.
package cache

import (
	"sync"

	"github.com/aeden/rrwalk/internal/dns/common/clock"
	"github.com/aeden/rrwalk/internal/dns/domain"
)

// entry wraps a resolved record with the absolute instant it expires
// at. The original TTL is kept alongside rather than recomputed from
// the remaining lifetime, so a cache hit always reports the value the
// upstream server actually sent rather than a shrinking one.
type entry struct {
	data       domain.RDATA
	ttl        uint32
	expiration int64
}

func (e entry) isExpired(now int64) bool {
	return now > e.expiration
}

func (e entry) toRecord(name domain.Name, rrtype domain.RRType) domain.ResourceRecord {
	return domain.ResourceRecord{
		Name:  name,
		Type:  rrtype,
		Class: domain.RRClassIN,
		TTL:   e.ttl,
		Data:  e.data,
	}
}

type key struct {
	name   string
	rrtype domain.RRType
}

// Cache is a concurrency-safe map of (name, type) to the set of
// resource records cached for that key, each with its own expiration.
type Cache struct {
	clock clock.Clock

	mu   sync.RWMutex
	data map[key][]entry
}

// New returns an empty Cache that uses clk to determine expiration.
func New(clk clock.Clock) *Cache {
	return &Cache{clock: clk, data: make(map[key][]entry)}
}

// Get returns the non-expired records cached for name/rrtype. The
// second return value is false if nothing is cached or everything
// cached has expired.
func (c *Cache) Get(name domain.Name, rrtype domain.RRType) ([]domain.ResourceRecord, bool) {
	c.mu.RLock()
	entries := c.data[key{name: name.CacheKey(), rrtype: rrtype}]
	c.mu.RUnlock()

	if len(entries) == 0 {
		return nil, false
	}

	now := c.clock.Now().Unix()
	out := make([]domain.ResourceRecord, 0, len(entries))
	for _, e := range entries {
		if e.isExpired(now) {
			continue
		}
		out = append(out, e.toRecord(name, rrtype))
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

// Put stores records in the cache, each keyed by its own name and
// type. A record already present with the same data is left
// untouched rather than duplicated.
func (c *Cache) Put(records []domain.ResourceRecord) {
	if len(records) == 0 {
		return
	}

	now := c.clock.Now().Unix()

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, rr := range records {
		k := key{name: rr.Name.CacheKey(), rrtype: rr.Type}
		e := entry{data: rr.Data, ttl: rr.TTL, expiration: now + int64(rr.TTL)}

		existing := c.data[k]
		duplicate := false
		for _, have := range existing {
			if have.data.String() == e.data.String() {
				duplicate = true
				break
			}
		}
		if duplicate {
			continue
		}
		c.data[k] = append(existing, e)
	}
}

// Purge drops every expired entry from the cache. Intended to be run
// periodically so the map doesn't grow unbounded with stale records
// that are never looked up again.
func (c *Cache) Purge() {
	now := c.clock.Now().Unix()

	c.mu.Lock()
	defer c.mu.Unlock()

	for k, entries := range c.data {
		kept := entries[:0]
		for _, e := range entries {
			if !e.isExpired(now) {
				kept = append(kept, e)
			}
		}
		if len(kept) == 0 {
			delete(c.data, k)
		} else {
			c.data[k] = kept
		}
	}
}
