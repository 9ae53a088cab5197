package gateway

import "github.com/getmockd/wsgate/pkg/transport"

// AcceptListener receives every negotiated transport. OnAccept is called
// once per upgrade, possibly from many goroutines at once, and takes
// ownership of t.
type AcceptListener interface {
	OnAccept(t transport.Transport)
}

// AcceptFunc adapts a function to AcceptListener.
type AcceptFunc func(t transport.Transport)

// OnAccept calls f(t).
func (f AcceptFunc) OnAccept(t transport.Transport) {
	f(t)
}
