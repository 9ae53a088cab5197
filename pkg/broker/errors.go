package broker

import "errors"

var (
	// ErrAlreadyRunning is returned by Start on a running broker.
	ErrAlreadyRunning = errors.New("broker is already running")
	// ErrShuttingDown is returned for transports accepted during shutdown.
	ErrShuttingDown = errors.New("acceptor is shutting down")
	// ErrNoUpstream is returned when a relay has no upstream address.
	ErrNoUpstream = errors.New("no upstream address configured")
)
