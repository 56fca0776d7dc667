package client

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aeden/rrwalk/internal/dns/domain"
	"github.com/aeden/rrwalk/internal/dns/wire"
)

// fakeServer answers every query with a single A record matching the
// question name, echoing the query's ID.
func fakeServer(t *testing.T) (addr string, stop func()) {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	require.NoError(t, err)

	done := make(chan struct{})
	go func() {
		codec := wire.NewMessageCodec()
		buf := make([]byte, wire.MaxMessageSize)
		for {
			n, raddr, err := conn.ReadFromUDP(buf)
			if err != nil {
				return
			}
			query, err := codec.Decode(buf[:n])
			if err != nil {
				continue
			}
			q, _ := query.Question()
			rr, _ := domain.NewResourceRecord(q.Name, domain.RRTypeA, domain.RRClassIN, 60, domain.AData{IP: net.ParseIP("192.0.2.42")})
			resp := domain.Message{
				Header:    domain.Header{ID: query.ID, IsResponse: true, RecursionAvailable: true},
				Questions: query.Questions,
				Answers:   []domain.ResourceRecord{rr},
			}
			encoded, err := codec.Encode(resp)
			if err != nil {
				continue
			}
			_, _ = conn.WriteToUDP(encoded, raddr)

			select {
			case <-done:
				return
			default:
			}
		}
	}()

	return conn.LocalAddr().String(), func() {
		close(done)
		conn.Close()
	}
}

func TestClient_Query(t *testing.T) {
	addr, stop := fakeServer(t)
	defer stop()

	c, err := Dial(addr)
	require.NoError(t, err)
	defer c.Close()

	q, err := domain.NewQuestion(domain.NewName("example.com"), domain.RRTypeA, domain.RRClassIN)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	resp, err := c.Query(ctx, q)
	require.NoError(t, err)
	require.Len(t, resp.Answers, 1)

	a, ok := resp.Answers[0].Data.(domain.AData)
	require.True(t, ok, "expected AData, got %T", resp.Answers[0].Data)
	assert.Equal(t, "192.0.2.42", a.IP.String())
}

func TestClient_Query_Timeout(t *testing.T) {
	// Bind a socket that never replies.
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.ParseIP("127.0.0.1"), Port: 0})
	require.NoError(t, err)
	defer conn.Close()

	c, err := Dial(conn.LocalAddr().String())
	require.NoError(t, err)
	defer c.Close()

	q, err := domain.NewQuestion(domain.NewName("example.com"), domain.RRTypeA, domain.RRClassIN)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = c.Query(ctx, q)
	assert.Error(t, err)
}
