package broker

import (
	"bytes"
	"log/slog"
	"sync/atomic"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/packets"
)

// ConnectionHook logs MQTT client sessions and counts connected clients.
type ConnectionHook struct {
	mqtt.HookBase
	log       *slog.Logger
	connected atomic.Int64
}

// NewConnectionHook creates a new connection hook.
func NewConnectionHook(log *slog.Logger) *ConnectionHook {
	return &ConnectionHook{log: log}
}

// ID returns the hook identifier
func (h *ConnectionHook) ID() string {
	return "wsgate-connections"
}

// Provides indicates which hook methods this hook provides
func (h *ConnectionHook) Provides(b byte) bool {
	//nolint:gocritic // argument order is intentional
	return bytes.Contains([]byte{
		mqtt.OnConnect,
		mqtt.OnDisconnect,
	}, []byte{b})
}

// OnConnect records a client session.
func (h *ConnectionHook) OnConnect(cl *mqtt.Client, pk packets.Packet) error {
	h.connected.Add(1)
	h.log.Debug("mqtt client connected",
		"clientId", cl.ID,
		"listener", cl.Net.Listener,
		"remote", cl.Net.Remote,
		"protocolVersion", pk.ProtocolVersion,
	)
	return nil
}

// OnDisconnect records the end of a client session.
func (h *ConnectionHook) OnDisconnect(cl *mqtt.Client, err error, expire bool) {
	h.connected.Add(-1)
	attrs := []any{
		"clientId", cl.ID,
		"listener", cl.Net.Listener,
		"remote", cl.Net.Remote,
		"expire", expire,
	}
	if err != nil {
		attrs = append(attrs, "error", err)
	}
	h.log.Debug("mqtt client disconnected", attrs...)
}

// Connected returns the number of connected MQTT clients.
func (h *ConnectionHook) Connected() int64 {
	return h.connected.Load()
}
