package broker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/getmockd/wsgate/pkg/logging"
	"github.com/getmockd/wsgate/pkg/transport"
)

// DefaultDialTimeout bounds the upstream dial of a Relay.
const DefaultDialTimeout = 10 * time.Second

// Relay pipes transports to an upstream TCP broker.
type Relay struct {
	upstream string
	dialer   net.Dialer
	log      *slog.Logger
}

// Interface compliance check.
var _ TransportHandler = (*Relay)(nil)

// NewRelay creates a Relay to upstream. A non-positive dialTimeout uses
// DefaultDialTimeout.
func NewRelay(upstream string, dialTimeout time.Duration, log *slog.Logger) (*Relay, error) {
	if upstream == "" {
		return nil, ErrNoUpstream
	}
	if dialTimeout <= 0 {
		dialTimeout = DefaultDialTimeout
	}
	if log == nil {
		log = logging.Nop()
	}
	return &Relay{
		upstream: upstream,
		dialer:   net.Dialer{Timeout: dialTimeout},
		log:      log,
	}, nil
}

// Upstream returns the upstream address.
func (r *Relay) Upstream() string {
	return r.upstream
}

// ServeTransport dials the upstream broker and copies bytes both ways until
// either side closes or ctx is cancelled.
func (r *Relay) ServeTransport(ctx context.Context, t transport.Transport) error {
	up, err := r.dialer.DialContext(ctx, "tcp", r.upstream)
	if err != nil {
		return fmt.Errorf("failed to dial upstream %s: %w", r.upstream, err)
	}
	r.log.Debug("relay opened", "id", t.ID(), "upstream", r.upstream)

	var once sync.Once
	stopped := make(chan struct{})
	stop := func() {
		once.Do(func() {
			close(stopped)
			_ = up.Close()
			_ = t.Close()
		})
	}

	pipe := func(dst io.Writer, src io.Reader) error {
		_, err := io.Copy(dst, src)
		select {
		case <-stopped:
			// The other direction finished first.
			return nil
		default:
		}
		stop()
		if err == nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, transport.ErrClosed) {
			return nil
		}
		return err
	}

	var g errgroup.Group
	g.Go(func() error { return pipe(up, t) })
	g.Go(func() error { return pipe(t, up) })
	g.Go(func() error {
		select {
		case <-ctx.Done():
			stop()
		case <-stopped:
		}
		return nil
	})

	err = g.Wait()
	r.log.Debug("relay closed", "id", t.ID(), "upstream", r.upstream)
	return err
}
