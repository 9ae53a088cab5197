// Option functions for configuring the Dispatcher and Handler.

package gateway

import (
	"log/slog"
	"net/http"

	"github.com/getmockd/wsgate/pkg/metrics"
	"github.com/getmockd/wsgate/pkg/transport"
)

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(log *slog.Logger) Option {
	return func(d *Dispatcher) {
		if log != nil {
			d.log = log
		}
	}
}

// WithMetrics sets the collectors negotiation outcomes are recorded on.
func WithMetrics(m *metrics.Metrics) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

// WithTransportOptions sets the transport options handed to every adapter.
// The dispatcher keeps its own copy.
func WithTransportOptions(opts transport.Options) Option {
	return func(d *Dispatcher) {
		d.options = opts.Clone()
	}
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithStaticHandler serves non-upgrade GET and HEAD requests with h.
func WithStaticHandler(h http.Handler) HandlerOption {
	return func(hd *Handler) {
		if h != nil {
			hd.static = h
		}
	}
}

// WithStaticDir serves non-upgrade GET and HEAD requests from dir.
// An empty dir leaves the default 404 handler in place.
func WithStaticDir(dir string) HandlerOption {
	return func(hd *Handler) {
		if dir != "" {
			hd.static = http.FileServer(http.Dir(dir))
		}
	}
}

// WithAllowedOrigins restricts the accepted Origin hosts. Patterns use
// path.Match syntax. With no patterns origin verification is skipped.
func WithAllowedOrigins(patterns ...string) HandlerOption {
	return func(hd *Handler) {
		hd.originPatterns = append([]string(nil), patterns...)
	}
}

// WithCompression enables permessage-deflate negotiation.
func WithCompression(enabled bool) HandlerOption {
	return func(hd *Handler) {
		hd.compression = enabled
	}
}
