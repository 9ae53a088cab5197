package transport

import (
	"crypto/x509"

	ws "github.com/coder/websocket"

	"github.com/getmockd/wsgate/pkg/subprotocol"
)

// MQTTSocket is the MQTT-family adapter. MQTT packets travel as WebSocket
// binary messages.
type MQTTSocket struct {
	*socket
}

var _ Adapter = (*MQTTSocket)(nil)

// NewMQTTSocket creates an MQTT adapter for the peer at remoteAddress with
// its certificate chain.
func NewMQTTSocket(remoteAddress string, certs []*x509.Certificate) *MQTTSocket {
	s := &MQTTSocket{socket: newSocket(subprotocol.FamilyMQTT, remoteAddress, ws.MessageBinary)}
	s.setCertificates(certs)
	return s
}

// SetTransportOptions replaces the adapter's options with a copy of opts.
func (s *MQTTSocket) SetTransportOptions(opts Options) {
	s.setOptions(opts)
}
