package resolver

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aeden/rrwalk/internal/dns/common/clock"
	"github.com/aeden/rrwalk/internal/dns/domain"
)

// negativeCacheTTL bounds how long a failed lookup is remembered,
// independent of any record TTL since there is none to carry: this is
// purely a backoff against hammering a name server that just answered
// SERVFAIL or NXDOMAIN for the same question.
const negativeCacheTTL = 30 * time.Second

type negativeEntry struct {
	rcode   domain.RCode
	expires int64
}

// negativeCache remembers recently failed lookups so an iterative walk
// doesn't repeat the same failing query against the same upstream
// within a short window. Bounded by an LRU so a flood of distinct
// failing names can't grow it without limit.
type negativeCache struct {
	clock clock.Clock
	lru   *lru.Cache[string, negativeEntry]
}

func newNegativeCache(clk clock.Clock, size int) (*negativeCache, error) {
	c, err := lru.New[string, negativeEntry](size)
	if err != nil {
		return nil, err
	}
	return &negativeCache{clock: clk, lru: c}, nil
}

func (n *negativeCache) get(q domain.Question) (domain.RCode, bool) {
	entry, ok := n.lru.Get(q.CacheKey())
	if !ok {
		return 0, false
	}
	if n.clock.Now().Unix() > entry.expires {
		n.lru.Remove(q.CacheKey())
		return 0, false
	}
	return entry.rcode, true
}

func (n *negativeCache) put(q domain.Question, rcode domain.RCode) {
	n.lru.Add(q.CacheKey(), negativeEntry{
		rcode:   rcode,
		expires: n.clock.Now().Add(negativeCacheTTL).Unix(),
	})
}
