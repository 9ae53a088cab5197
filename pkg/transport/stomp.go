package transport

import (
	"crypto/x509"

	ws "github.com/coder/websocket"

	"github.com/getmockd/wsgate/pkg/subprotocol"
)

// StompSocket is the STOMP-family adapter. STOMP frames travel as WebSocket
// text messages.
type StompSocket struct {
	*socket
}

var _ Adapter = (*StompSocket)(nil)

// NewStompSocket creates a STOMP adapter for the peer at remoteAddress. The
// adapter keeps its own copy of opts.
func NewStompSocket(remoteAddress string, opts Options) *StompSocket {
	s := &StompSocket{socket: newSocket(subprotocol.FamilySTOMP, remoteAddress, ws.MessageText)}
	s.setOptions(opts)
	return s
}

// SetCertificates attaches the peer certificate chain.
func (s *StompSocket) SetCertificates(certs []*x509.Certificate) {
	s.setCertificates(certs)
}
