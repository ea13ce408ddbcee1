package client

import (
	"context"
	"errors"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/danmuck/where/internal/protocol"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Resolver looks up target addresses. *net.Resolver satisfies it.
type Resolver interface {
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
	LookupPort(ctx context.Context, network, service string) (int, error)
}

// PacketConn is the part of a datagram socket the retry engine uses.
type PacketConn interface {
	ReadFrom(p []byte) (int, net.Addr, error)
	WriteTo(p []byte, addr net.Addr) (int, error)
	SetReadDeadline(t time.Time) error
	Close() error
}

// ListenFunc opens an unconnected datagram socket on laddr.
type ListenFunc func(network string, laddr *net.UDPAddr) (PacketConn, error)

type Option func(*Client)

func WithResolver(r Resolver) Option {
	return func(c *Client) { c.resolver = r }
}

func WithListen(fn ListenFunc) Option {
	return func(c *Client) { c.listen = fn }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func WithLogger(logger zerolog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// Client runs the retry engine against one target at a time.
type Client struct {
	resolver Resolver
	listen   ListenFunc
	now      func() time.Time
	logger   zerolog.Logger
}

func New(opts ...Option) *Client {
	c := &Client{
		resolver: net.DefaultResolver,
		listen:   listenUDP,
		now:      time.Now,
		logger:   log.Logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func listenUDP(network string, laddr *net.UDPAddr) (PacketConn, error) {
	conn, err := net.ListenUDP(network, laddr)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

type state int

const (
	stateResolving state = iota
	stateBound
	stateSending
	stateAwaiting
	stateSucceeded
	stateExhausted
	stateFatal
)

func (s state) String() string {
	switch s {
	case stateResolving:
		return "resolving"
	case stateBound:
		return "bound"
	case stateSending:
		return "sending"
	case stateAwaiting:
		return "awaiting"
	case stateSucceeded:
		return "succeeded"
	case stateExhausted:
		return "exhausted"
	case stateFatal:
		return "fatal"
	default:
		return "unknown"
	}
}

func (s state) terminal() bool {
	return s >= stateSucceeded
}

// query is the mutable state of one target's retry sequence.
type query struct {
	client   *Client
	settings Settings
	logger   zerolog.Logger

	addr   *net.UDPAddr
	conn   PacketConn
	sent   int
	buf    []byte
	result protocol.Collection
	err    error
}

// Query sends probes to the target until a reply decodes, every attempt
// times out, or a non-timeout failure occurs. The socket is reused
// across attempts and closed before returning.
func (c *Client) Query(ctx context.Context, s Settings) (protocol.Collection, error) {
	q := &query{
		client:   c,
		settings: s,
		logger:   c.logger.With().Str("target", s.Label).Logger(),
	}
	defer q.close()

	st := stateResolving
	for !st.terminal() {
		next := q.step(ctx, st)
		q.logger.Debug().Stringer("from", st).Stringer("to", next).Int("attempt", q.sent).Msg("client.Query transition")
		st = next
	}

	switch st {
	case stateSucceeded:
		return q.result, nil
	case stateExhausted:
		return nil, &TimeoutError{
			Target:   s.Endpoint,
			Address:  q.addr.String(),
			Attempts: q.sent,
			Timeout:  s.Timeout,
		}
	default:
		return nil, q.err
	}
}

func (q *query) step(ctx context.Context, st state) state {
	switch st {
	case stateResolving:
		return q.resolve(ctx)
	case stateBound:
		return q.bind()
	case stateSending:
		return q.send(ctx)
	case stateAwaiting:
		return q.await()
	default:
		return st
	}
}

func (q *query) fail(err error) state {
	q.err = err
	return stateFatal
}

func (q *query) resolve(ctx context.Context) state {
	endpoint := strings.TrimSpace(q.settings.Endpoint)
	host, port, err := net.SplitHostPort(endpoint)
	if err != nil {
		host = strings.TrimSuffix(strings.TrimPrefix(endpoint, "["), "]")
		port = strconv.Itoa(q.settings.Port)
	}

	portNum, err := strconv.Atoi(port)
	if err != nil {
		portNum, err = q.client.resolver.LookupPort(ctx, "udp", port)
		if err != nil {
			return q.fail(&ResolveError{Endpoint: q.settings.Endpoint, Err: err})
		}
	}

	addrs, err := q.client.resolver.LookupIPAddr(ctx, host)
	if err != nil {
		return q.fail(&ResolveError{Endpoint: q.settings.Endpoint, Err: err})
	}
	for _, a := range addrs {
		if ip4 := a.IP.To4(); ip4 != nil {
			q.addr = &net.UDPAddr{IP: ip4, Port: portNum}
			q.logger.Debug().Str("address", q.addr.String()).Msg("client.Query resolved")
			return stateBound
		}
	}
	return q.fail(&ResolveError{Endpoint: q.settings.Endpoint, Err: ErrNoIPv4})
}

func (q *query) bind() state {
	conn, err := q.client.listen("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: 0})
	if err != nil {
		return q.fail(&TransportError{Op: "bind", Address: q.addr.String(), Err: err})
	}
	q.conn = conn
	// One byte over capacity so an oversized reply reaches the decoder
	// instead of being silently cut to a valid-looking length.
	q.buf = make([]byte, protocol.MaxPayloadLength+1)
	return stateSending
}

func (q *query) send(ctx context.Context) state {
	if err := ctx.Err(); err != nil {
		return q.fail(err)
	}
	q.sent++
	if _, err := q.conn.WriteTo(protocol.Probe(), q.addr); err != nil {
		return q.fail(&TransportError{Op: "send", Address: q.addr.String(), Err: err})
	}
	q.logger.Debug().Int("attempt", q.sent).Str("address", q.addr.String()).Msg("client.Query probe sent")
	return stateAwaiting
}

func (q *query) await() state {
	deadline := q.client.now().Add(q.settings.Timeout)
	if err := q.conn.SetReadDeadline(deadline); err != nil {
		return q.fail(&TransportError{Op: "configure", Address: q.addr.String(), Err: err})
	}

	n, _, err := q.conn.ReadFrom(q.buf)
	if err != nil {
		if !isTimeout(err) {
			return q.fail(&TransportError{Op: "receive", Address: q.addr.String(), Err: err})
		}
		q.logger.Warn().
			Int("attempt", q.sent).
			Int("max_attempts", q.settings.attempts()).
			Dur("timeout", q.settings.Timeout).
			Msg("client.Query attempt timed out")
		if q.sent < q.settings.attempts() {
			return stateSending
		}
		return stateExhausted
	}

	sessions, err := protocol.Decode(q.buf[:n], q.settings.Label)
	if err != nil {
		return q.fail(&DecodeError{Target: q.settings.Endpoint, Err: err})
	}
	q.result = sessions
	q.logger.Debug().Int("bytes", n).Int("sessions", len(sessions)).Msg("client.Query reply decoded")
	return stateSucceeded
}

func (q *query) close() {
	if q.conn != nil {
		_ = q.conn.Close()
	}
}

func isTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
