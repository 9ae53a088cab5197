package app

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"

	"go.uber.org/fx"
	"go.uber.org/multierr"
	"golang.org/x/net/netutil"

	"github.com/getmockd/wsgate/pkg/broker"
	"github.com/getmockd/wsgate/pkg/config"
	"github.com/getmockd/wsgate/pkg/gateway"
	"github.com/getmockd/wsgate/pkg/logging"
	"github.com/getmockd/wsgate/pkg/metrics"
	wstls "github.com/getmockd/wsgate/pkg/tls"
)

// Server is the gateway's HTTP server.
type Server struct {
	cfg      config.ServerConfig
	http     *http.Server
	tls      *tls.Config
	acceptor *broker.Acceptor
	log      *slog.Logger
	draining atomic.Bool

	mu   sync.RWMutex
	addr net.Addr
}

type serverParams struct {
	fx.In

	Lifecycle  fx.Lifecycle
	Config     *config.Config
	Log        *slog.Logger
	Dispatcher *gateway.Dispatcher
	Acceptor   *broker.Acceptor
	MQTT       *broker.MQTTBroker
	Metrics    *metrics.Metrics
}

func newServer(p serverParams) (*Server, error) {
	tlsConfig, err := wstls.NewServerConfig(p.Config.TLS, p.Config.Server.Listen)
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:      p.Config.Server,
		tls:      tlsConfig,
		acceptor: p.Acceptor,
		log:      logging.Component(p.Log, "server"),
	}

	gw, err := gateway.NewHandler(p.Dispatcher,
		gateway.WithStaticDir(p.Config.Server.StaticDir),
		gateway.WithAllowedOrigins(p.Config.Server.AllowedOrigins...),
		gateway.WithCompression(p.Config.Server.Compression),
	)
	if err != nil {
		return nil, err
	}
	s.http = &http.Server{
		Handler:           s.routes(p.Config, gw, p.Acceptor.Manager(), p.MQTT, p.Metrics),
		ReadHeaderTimeout: p.Config.Server.ReadHeaderTimeout.Std(),
	}

	p.Lifecycle.Append(fx.Hook{
		OnStart: s.Start,
		OnStop:  s.Stop,
	})
	return s, nil
}

// Start listens on the configured address and serves in the background.
func (s *Server) Start(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Listen, err)
	}
	if s.cfg.MaxConnections > 0 {
		ln = netutil.LimitListener(ln, s.cfg.MaxConnections)
	}
	if s.tls != nil {
		// The upgrade needs HTTP/1.1, so h2 is never offered.
		cfg := s.tls.Clone()
		cfg.NextProtos = []string{"http/1.1"}
		ln = tls.NewListener(ln, cfg)
	}

	s.mu.Lock()
	s.addr = ln.Addr()
	s.mu.Unlock()

	s.log.Info("gateway listening",
		"addr", ln.Addr().String(),
		"path", s.cfg.Path,
		"tls", s.tls != nil,
		"maxConnections", s.cfg.MaxConnections,
	)

	go func() {
		if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("HTTP server error", "error", err)
		}
	}()
	return nil
}

// Stop stops accepting requests, then closes every live transport.
func (s *Server) Stop(ctx context.Context) error {
	s.draining.Store(true)
	return multierr.Combine(
		s.http.Shutdown(ctx),
		s.acceptor.Shutdown(ctx),
	)
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.addr
}

// Draining reports whether the server is shutting down.
func (s *Server) Draining() bool {
	return s.draining.Load()
}
