package main

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/aeden/rrwalk/internal/dns/cache"
	"github.com/aeden/rrwalk/internal/dns/client"
	"github.com/aeden/rrwalk/internal/dns/common/clock"
	"github.com/aeden/rrwalk/internal/dns/common/log"
	"github.com/aeden/rrwalk/internal/dns/domain"
	"github.com/aeden/rrwalk/internal/dns/resolver"
	"github.com/aeden/rrwalk/internal/dns/server"
	"github.com/aeden/rrwalk/internal/dns/wire"
)

// fakeAuthority answers every query it receives with the fixed
// response a test registered for that question's cache key, emulating
// one hop of the delegation chain.
type fakeAuthority struct {
	t         *testing.T
	responses map[string]domain.Message
	conn      *net.UDPConn
}

func newFakeAuthority(t *testing.T) *fakeAuthority {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	fa := &fakeAuthority{t: t, responses: make(map[string]domain.Message), conn: conn}
	go fa.serve()
	t.Cleanup(func() { conn.Close() })
	return fa
}

func (fa *fakeAuthority) addr() string {
	return fa.conn.LocalAddr().String()
}

func (fa *fakeAuthority) on(name domain.Name, rrtype domain.RRType, resp domain.Message) {
	fa.responses[domain.GenerateCacheKey(name, rrtype)] = resp
}

func (fa *fakeAuthority) serve() {
	codec := wire.NewMessageCodec()
	buf := make([]byte, wire.MaxMessageSize)
	for {
		n, peer, err := fa.conn.ReadFromUDP(buf)
		if err != nil {
			return
		}
		query, err := codec.Decode(buf[:n])
		if err != nil {
			continue
		}
		q, ok := query.Question()
		if !ok {
			continue
		}
		resp, ok := fa.responses[domain.GenerateCacheKey(q.Name, q.Type)]
		if !ok {
			continue
		}
		resp.ID = query.ID
		resp.IsResponse = true
		resp.RecursionAvailable = true
		resp.Questions = []domain.Question{q}

		encoded, err := codec.Encode(resp)
		if err != nil {
			continue
		}
		_, _ = fa.conn.WriteToUDP(encoded, peer)
	}
}

func mustRR(t *testing.T, name domain.Name, rrtype domain.RRType, ttl uint32, data domain.RDATA) domain.ResourceRecord {
	t.Helper()
	rr, err := domain.NewResourceRecord(name, rrtype, domain.RRClassIN, ttl, data)
	if err != nil {
		t.Fatalf("build record: %v", err)
	}
	return rr
}

// TestE2E_IterativeResolution wires a real resolver against two fake
// name servers standing in for "." and "com.", matching spec.md §8
// scenario 6: the root refers to com.'s name server, that server
// returns the final answer for api.example.com.
func TestE2E_IterativeResolution(t *testing.T) {
	qname := domain.NewName("api.example.com")

	authoritative := newFakeAuthority(t)
	authAddr := authoritative.addr()
	nsName := domain.NewName("ns1.example.com")

	root := newFakeAuthority(t)

	comNS := domain.NewName("ns1.com")
	host, port, err := net.SplitHostPort(authAddr)
	if err != nil {
		t.Fatalf("split host port: %v", err)
	}
	_ = port
	glueIP := net.ParseIP(host)

	root.on(domain.NewName("com"), domain.RRTypeNS, domain.Message{
		Authority:  []domain.ResourceRecord{mustRR(t, domain.NewName("com"), domain.RRTypeNS, 3600, domain.NSData{Target: comNS})},
		Additional: []domain.ResourceRecord{mustRR(t, comNS, domain.RRTypeA, 3600, domain.AData{IP: glueIP})},
	})
	root.on(comNS, domain.RRTypeA, domain.Message{
		Answers: []domain.ResourceRecord{mustRR(t, comNS, domain.RRTypeA, 3600, domain.AData{IP: glueIP})},
	})

	authoritative.on(domain.NewName("com"), domain.RRTypeNS, domain.Message{
		Authority:  []domain.ResourceRecord{mustRR(t, domain.NewName("com"), domain.RRTypeNS, 3600, domain.NSData{Target: comNS})},
		Additional: []domain.ResourceRecord{mustRR(t, comNS, domain.RRTypeA, 3600, domain.AData{IP: glueIP})},
	})
	authoritative.on(domain.NewName("example.com"), domain.RRTypeNS, domain.Message{
		Answers:    []domain.ResourceRecord{mustRR(t, domain.NewName("example.com"), domain.RRTypeNS, 3600, domain.NSData{Target: nsName})},
		Additional: []domain.ResourceRecord{mustRR(t, nsName, domain.RRTypeA, 3600, domain.AData{IP: glueIP})},
	})
	authoritative.on(qname, domain.RRTypeA, domain.Message{
		Answers: []domain.ResourceRecord{mustRR(t, qname, domain.RRTypeA, 300, domain.AData{IP: net.ParseIP("203.0.113.9")})},
	})

	recordCache := cache.New(clock.RealClock{})
	dial := func(addr string) (resolver.Querier, error) { return client.Dial(addr) }
	res, err := resolver.New(resolver.Options{
		Cache:     recordCache,
		Dial:      dial,
		Clock:     clock.RealClock{},
		Logger:    log.NewNoopLogger(),
		RootHints: []resolver.RootHint{resolver.RootHint(root.addr())},
		MaxHops:   8,
	})
	if err != nil {
		t.Fatalf("build resolver: %v", err)
	}

	srv := server.New("127.0.0.1:0", res, log.NewNoopLogger())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := srv.Start(ctx); err != nil {
		t.Fatalf("start server: %v", err)
	}
	defer srv.Stop()

	clientConn, err := client.Dial(srv.Address())
	if err != nil {
		t.Fatalf("dial server: %v", err)
	}
	defer clientConn.Close()

	q, err := domain.NewQuestion(qname, domain.RRTypeA, domain.RRClassIN)
	if err != nil {
		t.Fatalf("build question: %v", err)
	}

	ctxQuery, cancelQuery := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancelQuery()
	resp, err := clientConn.Query(ctxQuery, q)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(resp.Answers) != 1 {
		t.Fatalf("expected 1 answer, got %d: %+v", len(resp.Answers), resp.Answers)
	}
	a, ok := resp.Answers[0].Data.(domain.AData)
	if !ok || a.IP.String() != "203.0.113.9" {
		t.Errorf("unexpected answer data: %+v", resp.Answers[0].Data)
	}

	if _, ok := recordCache.Get(domain.NewName("com"), domain.RRTypeNS); !ok {
		t.Error("expected intermediate NS record to be cached")
	}
	if _, ok := recordCache.Get(comNS, domain.RRTypeA); !ok {
		t.Error("expected glue A record to be cached")
	}
}
