package gateway

import "errors"

var (
	// ErrNoAcceptListener indicates the dispatcher was built without an
	// accept listener. It is a configuration error; the gateway must not
	// serve requests.
	ErrNoAcceptListener = errors.New("no accept listener configured")
	// ErrNoDispatcher indicates a Handler was built without a dispatcher.
	ErrNoDispatcher = errors.New("no dispatcher configured")
	// ErrNoRegistry indicates the dispatcher was built without a registry.
	ErrNoRegistry = errors.New("no sub-protocol registry configured")
	// ErrRemoteAddress indicates the peer address could not be derived from
	// the upgrade request.
	ErrRemoteAddress = errors.New("cannot derive remote address")
	// ErrNilRequest indicates OnUpgrade was called without a request.
	ErrNilRequest = errors.New("nil upgrade request")
)
