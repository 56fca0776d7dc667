// Package server implements the UDP listener that turns inbound
// datagrams into resolver calls and writes the resulting response back
// to the requesting address, per spec.md §4.6.
package server

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/aeden/rrwalk/internal/dns/common/log"
	"github.com/aeden/rrwalk/internal/dns/domain"
	"github.com/aeden/rrwalk/internal/dns/wire"
)

// Handler answers a decoded query, returning the Message to send back.
// resolver.Resolver satisfies this directly.
type Handler interface {
	Resolve(ctx context.Context, q domain.Question) (domain.Message, error)
}

// Server binds a single UDP socket and dispatches every datagram it
// receives to Handler, one goroutine per datagram, matching spec.md
// §5's "each datagram is handled in its own task; the socket is shared
// across tasks via shared ownership".
type Server struct {
	addr    string
	handler Handler
	logger  log.Logger

	mu      sync.RWMutex
	conn    *net.UDPConn
	running bool
	stopCh  chan struct{}
}

// New returns a Server that will listen on addr (e.g. "0.0.0.0:53")
// once Start is called.
func New(addr string, handler Handler, logger log.Logger) *Server {
	return &Server{
		addr:    addr,
		handler: handler,
		logger:  logger,
		stopCh:  make(chan struct{}),
	}
}

// Start binds the UDP socket and begins the receive loop in the
// background. It returns once the socket is bound.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server: already running")
	}

	udpAddr, err := net.ResolveUDPAddr("udp", s.addr)
	if err != nil {
		return fmt.Errorf("server: resolve %s: %w", s.addr, err)
	}
	conn, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		return fmt.Errorf("server: bind %s: %w", s.addr, err)
	}

	s.conn = conn
	s.addr = conn.LocalAddr().String()
	s.running = true

	s.logger.Info(map[string]any{"address": s.addr}, "dns server listening")
	go s.loop(ctx)
	return nil
}

// Stop closes the listening socket, unblocking the receive loop.
func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	close(s.stopCh)
	s.running = false

	if s.conn != nil {
		return s.conn.Close()
	}
	return nil
}

// Address returns the address the server is bound to, which reflects
// the actual ephemeral port once Start has run if addr was ":0".
func (s *Server) Address() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

func (s *Server) loop(ctx context.Context) {
	buf := make([]byte, wire.MaxMessageSize)
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		n, peer, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			select {
			case <-s.stopCh:
				return
			default:
			}
			s.logger.Warn(map[string]any{"error": err.Error()}, "udp read failed")
			continue
		}

		datagram := make([]byte, n)
		copy(datagram, buf[:n])
		go s.handleDatagram(ctx, datagram, peer)
	}
}

// handleDatagram decodes one request, calls Handler, and writes back a
// Response whose skeleton (per spec.md §4.6) copies the request's ID
// and questions, sets QR=1/RA=1, and on any handler error substitutes a
// minimal rcode=ServerError response instead of dropping the datagram.
func (s *Server) handleDatagram(ctx context.Context, data []byte, peer *net.UDPAddr) {
	codec := wire.NewMessageCodec()

	query, err := codec.Decode(data)
	if err != nil {
		s.logger.Warn(map[string]any{"peer": peer.String(), "error": err.Error()}, "failed to decode query")
		return
	}

	q, ok := query.Question()
	if !ok {
		s.logger.Warn(map[string]any{"peer": peer.String()}, "query carried no question")
		return
	}

	resp, err := s.handler.Resolve(ctx, q)
	if err != nil {
		s.logger.Error(map[string]any{"peer": peer.String(), "query_id": query.ID, "error": err.Error()}, "resolution failed")
		resp = domain.NewErrorResponse(query, domain.RCode(2))
	} else {
		resp.ID = query.ID
		resp.IsResponse = true
		resp.RecursionAvailable = true
		resp.Questions = query.Questions
	}

	encoded, err := codec.Encode(resp)
	if err != nil {
		s.logger.Error(map[string]any{"peer": peer.String(), "query_id": query.ID, "error": err.Error()}, "failed to encode response")
		return
	}

	if _, err := s.conn.WriteToUDP(encoded, peer); err != nil {
		s.logger.Error(map[string]any{"peer": peer.String(), "query_id": query.ID, "error": err.Error()}, "failed to write response")
	}
}
