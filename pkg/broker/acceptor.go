package broker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"

	"github.com/getmockd/wsgate/pkg/gateway"
	"github.com/getmockd/wsgate/pkg/logging"
	"github.com/getmockd/wsgate/pkg/metrics"
	"github.com/getmockd/wsgate/pkg/mtls"
	"github.com/getmockd/wsgate/pkg/subprotocol"
	"github.com/getmockd/wsgate/pkg/transport"
)

// Interface compliance check.
var _ gateway.AcceptListener = (*Acceptor)(nil)

// Option configures an Acceptor.
type Option func(*Acceptor)

// WithHandler serves transports of family f with h.
func WithHandler(f subprotocol.Family, h TransportHandler) Option {
	return func(a *Acceptor) {
		if h != nil {
			a.handlers[f] = h
		}
	}
}

// WithLogger sets the acceptor logger.
func WithLogger(log *slog.Logger) Option {
	return func(a *Acceptor) {
		if log != nil {
			a.log = log
		}
	}
}

// WithMetrics sets the collectors transport lifetimes are recorded on.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Acceptor) {
		a.metrics = m
	}
}

// Acceptor receives negotiated transports from the gateway and serves each
// one on its own goroutine with the handler registered for its family.
type Acceptor struct {
	manager  *ConnectionManager
	handlers map[subprotocol.Family]TransportHandler
	log      *slog.Logger
	metrics  *metrics.Metrics

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	closing atomic.Bool
}

// NewAcceptor creates an Acceptor tracking transports in manager. A nil
// manager gets a fresh one.
func NewAcceptor(manager *ConnectionManager, opts ...Option) *Acceptor {
	if manager == nil {
		manager = NewConnectionManager()
	}
	ctx, cancel := context.WithCancel(context.Background())
	a := &Acceptor{
		manager:  manager,
		handlers: make(map[subprotocol.Family]TransportHandler),
		log:      logging.Nop(),
		ctx:      ctx,
		cancel:   cancel,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Manager returns the connection manager.
func (a *Acceptor) Manager() *ConnectionManager {
	return a.manager
}

// OnAccept implements gateway.AcceptListener. It never blocks: the transport
// is served on a new goroutine.
func (a *Acceptor) OnAccept(t transport.Transport) {
	if a.closing.Load() {
		a.log.Debug("transport refused", "id", t.ID(), "error", ErrShuttingDown)
		_ = t.Close()
		return
	}

	h, ok := a.handlers[t.Family()]
	if !ok {
		h = Reject(fmt.Sprintf("%s transports are not served", t.Family()))
	}

	a.manager.Add(t)
	a.metrics.TransportOpened(t.Family().String())

	attrs := []any{
		"id", t.ID(),
		"family", t.Family().String(),
		"subprotocol", t.Subprotocol(),
		"remote", t.RemoteAddress(),
	}
	if id := mtls.FromPeerCertificates(t.PeerCertificates(), false); id != nil {
		attrs = append(attrs, "client", id)
	}
	a.log.Info("transport accepted", attrs...)

	a.wg.Add(1)
	go a.serve(t, h)
}

func (a *Acceptor) serve(t transport.Transport, h TransportHandler) {
	defer a.wg.Done()

	err := h.ServeTransport(a.ctx, t)
	_ = t.Close()

	if a.manager.Remove(t.ID()) {
		a.metrics.TransportClosed(t.Family().String(), time.Since(t.ConnectedAt()))
	}

	attrs := []any{
		"id", t.ID(),
		"family", t.Family().String(),
		"remote", t.RemoteAddress(),
		"duration", time.Since(t.ConnectedAt()).Round(time.Millisecond).String(),
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	a.log.Info("transport closed", attrs...)
}

// Shutdown stops accepting transports, closes the live ones and waits for
// their handlers to return or ctx to expire.
func (a *Acceptor) Shutdown(ctx context.Context) error {
	if a.closing.Swap(true) {
		return nil
	}
	a.cancel()
	err := a.manager.CloseAll()

	done := make(chan struct{})
	go func() {
		a.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		err = multierr.Append(err, fmt.Errorf("waiting for transports: %w", ctx.Err()))
	}
	return err
}
