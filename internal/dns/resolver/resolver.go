// Package resolver implements iterative DNS resolution: starting from
// a set of root hints, walk the delegation chain one label at a time,
// following NS/A referrals until an authoritative answer is reached.
package resolver

import (
	"context"
	"fmt"

	"github.com/aeden/rrwalk/internal/dns/common/clock"
	"github.com/aeden/rrwalk/internal/dns/common/log"
	"github.com/aeden/rrwalk/internal/dns/domain"
)

// RootHint is one well-known root or forwarding server address in
// "host:port" form.
type RootHint string

// Options configures a Resolver. RootHints must contain at least one
// address unless ForwardUpstream is set; ForwardUpstream, when
// non-empty, short-circuits iterative
// walking entirely in favor of a single query to that address — the
// resolver's forwarding mode, supplementing the purely-iterative
// original with the deployment shape most DNS resolvers actually run.
type Options struct {
	Cache             Cache
	Dial              Dialer
	Clock             clock.Clock
	Logger            log.Logger
	RootHints         []RootHint
	ForwardUpstream   string
	MaxHops           int
	NegativeCacheSize int
}

// Resolver answers questions either by forwarding to a single upstream
// or by iteratively walking the delegation hierarchy from the root.
type Resolver struct {
	cache           Cache
	dial            Dialer
	clock           clock.Clock
	logger          log.Logger
	rootHints       []RootHint
	forwardUpstream string
	maxHops         int
	negCache        *negativeCache
}

// New builds a Resolver from opts. MaxHops defaults to 32 if unset;
// NegativeCacheSize defaults to 256.
func New(opts Options) (*Resolver, error) {
	if len(opts.RootHints) == 0 && opts.ForwardUpstream == "" {
		return nil, fmt.Errorf("resolver: at least one root hint or a forward upstream is required")
	}
	maxHops := opts.MaxHops
	if maxHops <= 0 {
		maxHops = 32
	}
	negSize := opts.NegativeCacheSize
	if negSize <= 0 {
		negSize = 256
	}
	negCache, err := newNegativeCache(opts.Clock, negSize)
	if err != nil {
		return nil, fmt.Errorf("resolver: build negative cache: %w", err)
	}
	return &Resolver{
		cache:           opts.Cache,
		dial:            opts.Dial,
		clock:           opts.Clock,
		logger:          opts.Logger,
		rootHints:       opts.RootHints,
		forwardUpstream: opts.ForwardUpstream,
		maxHops:         maxHops,
		negCache:        negCache,
	}, nil
}

// Resolve answers q, consulting the cache first, then either
// forwarding or iteratively walking the delegation chain.
func (r *Resolver) Resolve(ctx context.Context, q domain.Question) (domain.Message, error) {
	if records, ok := r.cache.Get(q.Name, q.Type); ok {
		return answerFromRecords(q, records), nil
	}

	if rcode, ok := r.negCache.get(q); ok {
		r.logger.Debug(map[string]any{"name": q.Name.String(), "type": q.Type.String()}, "negative cache hit")
		return domain.Message{Header: domain.Header{RecursionAvailable: true, RCode: rcode}, Questions: []domain.Question{q}}, nil
	}

	var resp domain.Message
	var err error
	if r.forwardUpstream != "" {
		resp, err = r.queryServer(ctx, r.forwardUpstream, q)
	} else {
		resp, err = r.iterate(ctx, q)
	}
	if err != nil {
		return domain.Message{}, err
	}

	if resp.RCode != domain.RCode(0) {
		r.negCache.put(q, resp.RCode)
	} else {
		r.cacheMessage(resp)
	}
	return resp, nil
}

// iterate walks the delegation hierarchy for q.Name one label at a
// time, starting from the configured root hints, following referrals
// until an authoritative server answers the query directly.
func (r *Resolver) iterate(ctx context.Context, q domain.Question) (domain.Message, error) {
	serverAddr := string(r.rootHints[0])

	var lastResp domain.Message
	hops := 0
	for _, suffix := range q.Name.Suffixes() {
		if suffix.IsRoot() {
			continue
		}
		hops++
		if hops > r.maxHops {
			return domain.Message{}, fmt.Errorf("resolver: exceeded %d hops resolving %s", r.maxHops, q.Name)
		}

		if nsRecords, ok := r.cache.Get(suffix, domain.RRTypeNS); ok {
			if addr, ok := r.resolveServerAddr(nsRecords[0]); ok {
				serverAddr = addr
				continue
			}
		}

		nsQuestion, err := domain.NewQuestion(suffix, domain.RRTypeNS, domain.RRClassIN)
		if err != nil {
			return domain.Message{}, err
		}
		resp, err := r.queryHop(ctx, serverAddr, nsQuestion)
		if err != nil {
			return domain.Message{}, err
		}
		lastResp = resp

		nsRecord, ok := findRecord(resp.Answers, suffix, domain.RRTypeNS)
		if !ok {
			nsRecord, ok = findRecord(resp.Authority, suffix, domain.RRTypeNS)
		}
		if !ok {
			return domain.Message{}, fmt.Errorf("resolver: no name server for %s", suffix)
		}
		nsData := nsRecord.Data.(domain.NSData)

		addrRecord, ok := findRecord(resp.Answers, nsData.Target, domain.RRTypeA)
		if !ok {
			addrRecord, ok = findRecord(resp.Additional, nsData.Target, domain.RRTypeA)
		}
		if !ok {
			aQuestion, err := domain.NewQuestion(nsData.Target, domain.RRTypeA, domain.RRClassIN)
			if err != nil {
				return domain.Message{}, err
			}
			aResp, err := r.queryHop(ctx, serverAddr, aQuestion)
			if err != nil {
				return domain.Message{}, err
			}
			r.cacheMessage(aResp)
			addrRecord, ok = findRecord(aResp.Answers, nsData.Target, domain.RRTypeA)
			if !ok {
				return domain.Message{}, fmt.Errorf("resolver: no address for name server %s", nsData.Target)
			}
		}

		serverAddr, ok = recordAddr(addrRecord)
		if !ok {
			return domain.Message{}, fmt.Errorf("resolver: name server record for %s has no usable address", nsData.Target)
		}
		r.cacheMessage(resp)
	}

	resp, err := r.queryHop(ctx, serverAddr, q)
	if err != nil {
		if lastResp.ID != 0 {
			return lastResp, nil
		}
		return domain.Message{}, err
	}
	return resp, nil
}

// queryHop performs a single name-server round trip of the iterative
// walk. The maxHops budget is enforced by iterate's loop, not here.
func (r *Resolver) queryHop(ctx context.Context, addr string, q domain.Question) (domain.Message, error) {
	return r.queryServer(ctx, addr, q)
}

func (r *Resolver) queryServer(ctx context.Context, addr string, q domain.Question) (domain.Message, error) {
	querier, err := r.dial(addr)
	if err != nil {
		return domain.Message{}, fmt.Errorf("resolver: dial %s: %w", addr, err)
	}
	if closer, ok := querier.(interface{ Close() error }); ok {
		defer closer.Close()
	}
	return querier.Query(ctx, q)
}

func (r *Resolver) resolveServerAddr(nsRecord domain.ResourceRecord) (string, bool) {
	nsData, ok := nsRecord.Data.(domain.NSData)
	if !ok {
		return "", false
	}
	aRecords, ok := r.cache.Get(nsData.Target, domain.RRTypeA)
	if !ok || len(aRecords) == 0 {
		return "", false
	}
	return recordAddr(aRecords[0])
}

// cacheMessage populates the cache from every section of msg. Writes
// happen synchronously and on the resolution path itself, not
// detached: iterate's next hop reads the very NS/A records a prior hop
// just cached, so a write racing that read would reintroduce the
// dialing this cache exists to avoid.
func (r *Resolver) cacheMessage(msg domain.Message) {
	r.cache.Put(msg.Answers)
	r.cache.Put(msg.Authority)
	r.cache.Put(msg.Additional)
}

func findRecord(records []domain.ResourceRecord, name domain.Name, rrtype domain.RRType) (domain.ResourceRecord, bool) {
	for _, rr := range records {
		if rr.Type == rrtype && rr.Name.Equal(name) {
			return rr, true
		}
	}
	return domain.ResourceRecord{}, false
}

func recordAddr(rr domain.ResourceRecord) (string, bool) {
	a, ok := rr.Data.(domain.AData)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%s:53", a.IP.String()), true
}

func answerFromRecords(q domain.Question, records []domain.ResourceRecord) domain.Message {
	return domain.Message{
		Header:    domain.Header{RecursionAvailable: true},
		Questions: []domain.Question{q},
		Answers:   records,
	}
}
