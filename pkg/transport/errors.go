package transport

import "errors"

var (
	// ErrClosed indicates the transport has been closed.
	ErrClosed = errors.New("transport closed")
	// ErrAlreadyBound indicates Bind was called more than once.
	ErrAlreadyBound = errors.New("transport already bound")
	// ErrNilConn indicates Bind was called without a connection.
	ErrNilConn = errors.New("nil websocket connection")
	// ErrHandshakeFailed is returned by reads and writes after Abort.
	ErrHandshakeFailed = errors.New("websocket handshake failed")
)
