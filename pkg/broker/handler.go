package broker

import (
	"context"

	ws "github.com/coder/websocket"

	"github.com/getmockd/wsgate/pkg/transport"
)

// TransportHandler serves one accepted transport. ServeTransport blocks for
// the transport's lifetime; the Acceptor closes the transport once it
// returns.
type TransportHandler interface {
	ServeTransport(ctx context.Context, t transport.Transport) error
}

// HandlerFunc adapts a function to TransportHandler.
type HandlerFunc func(ctx context.Context, t transport.Transport) error

// ServeTransport calls f(ctx, t).
func (f HandlerFunc) ServeTransport(ctx context.Context, t transport.Transport) error {
	return f(ctx, t)
}

// Reject returns a handler that closes every transport with a
// policy-violation close frame carrying reason.
func Reject(reason string) TransportHandler {
	return HandlerFunc(func(_ context.Context, t transport.Transport) error {
		return t.CloseWithStatus(ws.StatusPolicyViolation, reason)
	})
}
