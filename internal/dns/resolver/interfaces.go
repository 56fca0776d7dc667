package resolver

import (
	"context"

	"github.com/aeden/rrwalk/internal/dns/domain"
)

// Cache is the subset of cache.Cache the resolver depends on, narrowed
// so resolver tests can substitute an in-memory fake.
type Cache interface {
	Get(name domain.Name, rrtype domain.RRType) ([]domain.ResourceRecord, bool)
	Put(records []domain.ResourceRecord)
}

// Querier sends a single question to a specific name server and
// returns its response. client.Client satisfies this.
type Querier interface {
	Query(ctx context.Context, q domain.Question) (domain.Message, error)
}

// Dialer constructs a Querier connected to the given "host:port"
// address, letting the resolver open a fresh UDP socket per name
// server it needs to talk to during an iterative walk.
type Dialer func(addr string) (Querier, error)
