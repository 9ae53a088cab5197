package subprotocol

import "errors"

var (
	// ErrDuplicateToken indicates a token is claimed by more than one family.
	ErrDuplicateToken = errors.New("sub-protocol token registered by more than one family")
	// ErrUnknownFamily indicates a table was supplied for an unsupported family.
	ErrUnknownFamily = errors.New("unknown protocol family")
	// ErrEmptyToken indicates a table contains an empty token.
	ErrEmptyToken = errors.New("empty sub-protocol token")
)
