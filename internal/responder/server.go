package responder

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/danmuck/where/internal/observability"
	"github.com/danmuck/where/internal/protocol"
	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Source yields the local sessions for one reply.
type Source interface {
	Sessions() (protocol.Collection, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func() (protocol.Collection, error)

func (f SourceFunc) Sessions() (protocol.Collection, error) { return f() }

// RequestError is a failure answering one probe.
type RequestError struct {
	Stage string
	Peer  net.Addr
	Err   error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Peer, e.Stage, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

type Option func(*Server)

func WithLogger(logger zerolog.Logger) Option {
	return func(s *Server) { s.logger = logger }
}

// Server answers probes on one socket.
type Server struct {
	conn   net.PacketConn
	source Source
	logger zerolog.Logger
	buf    []byte
}

func New(conn net.PacketConn, source Source, opts ...Option) *Server {
	s := &Server{
		conn:   conn,
		source: source,
		logger: log.Logger,
		buf:    make([]byte, 512),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Listen binds addr and returns a server on it.
func Listen(addr string, source Source, opts ...Option) (*Server, error) {
	laddr, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolve listen address %q: %w", addr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("bind %s: %w", laddr, err)
	}
	return New(conn, source, opts...), nil
}

func (s *Server) Addr() net.Addr {
	return s.conn.LocalAddr()
}

func (s *Server) Close() error {
	return s.conn.Close()
}

// Serve answers probes until ctx is cancelled or the socket is closed.
// Cancellation closes the socket and Serve returns nil.
func (s *Server) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer stop()

	for {
		err := s.HandleOnce()
		if err == nil {
			continue
		}
		if errors.Is(err, net.ErrClosed) {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		var reqErr *RequestError
		if errors.As(err, &reqErr) {
			observability.RecordFailure(reqErr.Stage)
			s.logger.Error().Str("peer", reqErr.Peer.String()).Str("stage", reqErr.Stage).Err(reqErr.Err).Msg("request failed")
			continue
		}
		observability.RecordFailure("receive")
		s.logger.Error().Err(err).Msg("receive failed")
	}
}

// HandleOnce receives one datagram and answers it. Any datagram counts as
// a probe.
func (s *Server) HandleOnce() error {
	n, peer, err := s.conn.ReadFrom(s.buf)
	if err != nil {
		return err
	}
	observability.RecordProbe()
	event := s.logger.Info()
	if !protocol.IsProbe(s.buf[:n]) {
		event = s.logger.Warn().Bool("foreign", true)
	}
	event.Str("peer", peer.String()).Int("bytes", n).Msg("new client")

	sessions, err := s.source.Sessions()
	if err != nil {
		return &RequestError{Stage: "gather", Peer: peer, Err: err}
	}
	payload, err := protocol.Encode(sessions)
	if err != nil {
		return &RequestError{Stage: "encode", Peer: peer, Err: err}
	}
	if _, err := s.conn.WriteTo(payload, peer); err != nil {
		return &RequestError{Stage: "send", Peer: peer, Err: err}
	}

	observability.RecordReply(len(payload), len(sessions))
	s.logger.Info().
		Str("peer", peer.String()).
		Int("sessions", len(sessions)).
		Str("size", humanize.Bytes(uint64(len(payload)))).
		Msg("completed request")
	return nil
}
