// Package client implements a dial-style outbound DNS client: one UDP
// socket connected to a single upstream server, one question out, one
// message back.
package client

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"time"

	"github.com/aeden/rrwalk/internal/dns/domain"
	"github.com/aeden/rrwalk/internal/dns/wire"
)

// DefaultTimeout bounds a single query/response round trip when the
// caller's context carries no deadline of its own.
const DefaultTimeout = 2 * time.Second

// Client sends one question to a single upstream server and reads back
// its response. It does not verify the response's ID matches the
// query's: a connected UDP socket already guarantees the datagram came
// from the dialed address, and this resolver only ever has one query
// in flight per Client at a time.
type Client struct {
	addr string
	conn *net.UDPConn
}

// Dial opens a UDP socket connected to addr (host:port).
func Dial(addr string) (*Client, error) {
	raddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("client: resolve %s: %w", addr, err)
	}
	conn, err := net.DialUDP("udp", nil, raddr)
	if err != nil {
		return nil, fmt.Errorf("client: dial %s: %w", addr, err)
	}
	return &Client{addr: addr, conn: conn}, nil
}

// Close releases the underlying socket.
func (c *Client) Close() error {
	return c.conn.Close()
}

// Query sends q to the upstream server and returns its response. The
// query ID is chosen at random; ctx's deadline (or DefaultTimeout, if
// ctx carries none) bounds the whole round trip.
func (c *Client) Query(ctx context.Context, q domain.Question) (domain.Message, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultTimeout)
	}
	if err := c.conn.SetDeadline(deadline); err != nil {
		return domain.Message{}, fmt.Errorf("client: set deadline: %w", err)
	}

	id := uint16(rand.Intn(1 << 16))
	query := domain.NewQuery(id, q)

	codec := wire.NewMessageCodec()
	encoded, err := codec.Encode(query)
	if err != nil {
		return domain.Message{}, fmt.Errorf("client: encode query: %w", err)
	}
	if _, err := c.conn.Write(encoded); err != nil {
		return domain.Message{}, fmt.Errorf("client: write to %s: %w", c.addr, err)
	}

	buf := make([]byte, wire.MaxMessageSize)
	n, err := c.conn.Read(buf)
	if err != nil {
		return domain.Message{}, fmt.Errorf("client: read from %s: %w", c.addr, err)
	}

	resp, err := codec.Decode(buf[:n])
	if err != nil {
		return domain.Message{}, fmt.Errorf("client: decode response: %w", err)
	}
	return resp, nil
}
