package transport

import (
	"context"
	"crypto/x509"
	"net"
	"sync"
	"sync/atomic"
	"time"

	ws "github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/getmockd/wsgate/pkg/subprotocol"
)

// defaultCloseTimeout bounds the WebSocket close handshake when no
// closeTimeout option is set.
const defaultCloseTimeout = 5 * time.Second

// Transport is the capability the accept side consumes: a byte-stream
// connection that knows which sub-protocol it speaks and who is on the other
// end.
type Transport interface {
	net.Conn

	// ID returns the unique transport identifier.
	ID() string
	// Family returns the protocol family the connection was classified as.
	Family() subprotocol.Family
	// Subprotocol returns the accepted sub-protocol token.
	Subprotocol() string
	// RemoteAddress returns the generated ws:// or wss:// peer address.
	RemoteAddress() string
	// PeerCertificates returns the client certificate chain, if any.
	PeerCertificates() []*x509.Certificate
	// TransportOptions returns this transport's private options.
	TransportOptions() Options
	// ConnectedAt returns when the adapter was created.
	ConnectedAt() time.Time
	// Done is closed once the transport is closed.
	Done() <-chan struct{}
	// CloseWithStatus waits for the handshake to finish and closes the
	// connection with a WebSocket close code.
	CloseWithStatus(code ws.StatusCode, reason string) error
}

// Adapter is a Transport still owned by the upgrade layer, which completes
// it with the negotiated token and the established WebSocket connection.
type Adapter interface {
	Transport

	// SetSubprotocol records the negotiated token.
	SetSubprotocol(token string)
	// Bind attaches the established WebSocket connection.
	Bind(c *ws.Conn) error
	// Abort fails the adapter after a handshake error.
	Abort(err error)
}

// socket is the family-independent adapter core.
type socket struct {
	id            string
	family        subprotocol.Family
	remoteAddress string
	messageType   ws.MessageType
	connectedAt   time.Time

	mu            sync.RWMutex
	subprotocol   string
	certs         []*x509.Certificate
	options       Options
	wsConn        *ws.Conn
	conn          net.Conn
	readDeadline  time.Time
	writeDeadline time.Time
	err           error

	ready     chan struct{}
	readyOnce sync.Once
	done      chan struct{}
	closed    atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
}

func newSocket(family subprotocol.Family, remoteAddress string, messageType ws.MessageType) *socket {
	ctx, cancel := context.WithCancel(context.Background())
	return &socket{
		id:            uuid.NewString(),
		family:        family,
		remoteAddress: remoteAddress,
		messageType:   messageType,
		connectedAt:   time.Now(),
		options:       Options{},
		ready:         make(chan struct{}),
		done:          make(chan struct{}),
		ctx:           ctx,
		cancel:        cancel,
	}
}

// ID returns the unique transport identifier.
func (s *socket) ID() string { return s.id }

// Family returns the protocol family.
func (s *socket) Family() subprotocol.Family { return s.family }

// RemoteAddress returns the generated peer address.
func (s *socket) RemoteAddress() string { return s.remoteAddress }

// ConnectedAt returns the adapter creation time.
func (s *socket) ConnectedAt() time.Time { return s.connectedAt }

// Done is closed when the transport closes.
func (s *socket) Done() <-chan struct{} { return s.done }

// Subprotocol returns the negotiated token.
func (s *socket) Subprotocol() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.subprotocol
}

// SetSubprotocol records the negotiated token.
func (s *socket) SetSubprotocol(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subprotocol = token
}

// PeerCertificates returns a copy of the peer certificate chain.
func (s *socket) PeerCertificates() []*x509.Certificate {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.certs) == 0 {
		return nil
	}
	out := make([]*x509.Certificate, len(s.certs))
	copy(out, s.certs)
	return out
}

func (s *socket) setCertificates(certs []*x509.Certificate) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.certs = append([]*x509.Certificate(nil), certs...)
}

// TransportOptions returns the transport's own options map. Changes made
// through it are visible to this transport only.
func (s *socket) TransportOptions() Options {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.options
}

func (s *socket) setOptions(opts Options) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = opts.Clone()
}

// Bind attaches the established WebSocket connection and releases blocked
// readers and writers.
func (s *socket) Bind(c *ws.Conn) error {
	if c == nil {
		return ErrNilConn
	}

	// closed is checked under mu: Close sets it before reading conn.
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		_ = c.CloseNow()
		return ErrClosed
	}
	if s.conn != nil || s.err != nil {
		s.mu.Unlock()
		return ErrAlreadyBound
	}
	if limit, ok := s.options.Int(OptionMaxFrameSize); ok && limit > 0 {
		c.SetReadLimit(limit)
	}
	s.wsConn = c
	s.conn = ws.NetConn(s.ctx, c, s.messageType)
	if !s.readDeadline.IsZero() {
		_ = s.conn.SetReadDeadline(s.readDeadline)
	}
	if !s.writeDeadline.IsZero() {
		_ = s.conn.SetWriteDeadline(s.writeDeadline)
	}
	s.mu.Unlock()

	s.readyOnce.Do(func() { close(s.ready) })
	return nil
}

// Abort fails the adapter. Pending and future reads and writes return an
// error wrapping ErrHandshakeFailed.
func (s *socket) Abort(err error) {
	if err == nil {
		err = ErrHandshakeFailed
	}
	s.mu.Lock()
	if s.conn == nil && s.err == nil {
		s.err = &handshakeError{cause: err}
	}
	s.mu.Unlock()
	s.readyOnce.Do(func() { close(s.ready) })
}

// wait blocks until the adapter is bound, aborted or closed.
func (s *socket) wait() (net.Conn, error) {
	select {
	case <-s.ready:
	case <-s.ctx.Done():
		return nil, ErrClosed
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.conn, nil
}

// Read reads from the WebSocket message stream.
func (s *socket) Read(p []byte) (int, error) {
	c, err := s.wait()
	if err != nil {
		return 0, err
	}
	return c.Read(p)
}

// Write writes p as one WebSocket message.
func (s *socket) Write(p []byte) (int, error) {
	c, err := s.wait()
	if err != nil {
		return 0, err
	}
	return c.Write(p)
}

// Close closes the transport. It is safe to call more than once.
func (s *socket) Close() error {
	if s.closed.Swap(true) {
		return nil
	}
	defer close(s.done)

	s.mu.Lock()
	c := s.conn
	wsConn := s.wsConn
	timeout, ok := s.options.Duration(OptionCloseTimeout)
	s.mu.Unlock()
	if !ok || timeout <= 0 {
		timeout = defaultCloseTimeout
	}

	if c == nil {
		s.cancel()
		return nil
	}

	errCh := make(chan error, 1)
	go func() { errCh <- c.Close() }()

	var err error
	select {
	case err = <-errCh:
	case <-time.After(timeout):
		err = wsConn.CloseNow()
	}
	s.cancel()
	return err
}

// CloseWithStatus waits until the adapter is bound and closes the WebSocket
// connection with code and reason. An aborted adapter is closed without a
// close frame and the handshake error is returned.
func (s *socket) CloseWithStatus(code ws.StatusCode, reason string) error {
	if _, err := s.wait(); err != nil {
		_ = s.Close()
		return err
	}
	if s.closed.Swap(true) {
		return nil
	}
	defer close(s.done)
	defer s.cancel()

	s.mu.RLock()
	c := s.wsConn
	s.mu.RUnlock()
	return c.Close(code, reason)
}

// LocalAddr returns the local address of the bound connection.
func (s *socket) LocalAddr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.conn != nil {
		return s.conn.LocalAddr()
	}
	return Addr("")
}

// RemoteAddr returns the generated remote address.
func (s *socket) RemoteAddr() net.Addr {
	return Addr(s.remoteAddress)
}

// SetDeadline sets both read and write deadlines.
func (s *socket) SetDeadline(t time.Time) error {
	if err := s.SetReadDeadline(t); err != nil {
		return err
	}
	return s.SetWriteDeadline(t)
}

// SetReadDeadline sets the read deadline. Before Bind the deadline is kept
// and applied once the connection is attached.
func (s *socket) SetReadDeadline(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readDeadline = t
	if s.conn != nil {
		return s.conn.SetReadDeadline(t)
	}
	return nil
}

// SetWriteDeadline sets the write deadline. Before Bind the deadline is kept
// and applied once the connection is attached.
func (s *socket) SetWriteDeadline(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeDeadline = t
	if s.conn != nil {
		return s.conn.SetWriteDeadline(t)
	}
	return nil
}

// Addr is the net.Addr of a WebSocket peer, in ws://host:port form.
type Addr string

// Network returns "websocket".
func (a Addr) Network() string { return "websocket" }

// String returns the address.
func (a Addr) String() string { return string(a) }

type handshakeError struct {
	cause error
}

func (e *handshakeError) Error() string {
	return ErrHandshakeFailed.Error() + ": " + e.cause.Error()
}

func (e *handshakeError) Unwrap() []error {
	return []error{ErrHandshakeFailed, e.cause}
}
