package broker

import (
	"cmp"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/multierr"

	"github.com/getmockd/wsgate/pkg/mtls"
	"github.com/getmockd/wsgate/pkg/subprotocol"
	"github.com/getmockd/wsgate/pkg/transport"
)

// ConnectionManager tracks live transports.
type ConnectionManager struct {
	connections map[string]transport.Transport // ID -> Transport
	total       atomic.Int64
	startTime   time.Time

	mu sync.RWMutex
}

// ConnectionInfo describes a live transport.
type ConnectionInfo struct {
	ID            string               `json:"id"`
	Family        string               `json:"family"`
	Subprotocol   string               `json:"subprotocol"`
	RemoteAddress string               `json:"remoteAddress"`
	ConnectedAt   time.Time            `json:"connectedAt"`
	Client        *mtls.ClientIdentity `json:"client,omitempty"`
}

// ManagerStats summarizes the tracked transports.
type ManagerStats struct {
	Active   int            `json:"active"`
	Total    int64          `json:"total"`
	ByFamily map[string]int `json:"byFamily"`
	Uptime   string         `json:"uptime"`
}

// NewConnectionManager creates a new ConnectionManager.
func NewConnectionManager() *ConnectionManager {
	return &ConnectionManager{
		connections: make(map[string]transport.Transport),
		startTime:   time.Now(),
	}
}

// Add registers a transport.
func (m *ConnectionManager) Add(t transport.Transport) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.connections[t.ID()]; exists {
		return
	}
	m.connections[t.ID()] = t
	m.total.Add(1)
}

// Remove unregisters a transport. It reports whether the transport was
// tracked.
func (m *ConnectionManager) Remove(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.connections[id]; !exists {
		return false
	}
	delete(m.connections, id)
	return true
}

// Get returns a transport by ID.
func (m *ConnectionManager) Get(id string) transport.Transport {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connections[id]
}

// Count returns the number of live transports.
func (m *ConnectionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.connections)
}

// CountByFamily returns the number of live transports of family f.
func (m *ConnectionManager) CountByFamily(f subprotocol.Family) int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, t := range m.connections {
		if t.Family() == f {
			n++
		}
	}
	return n
}

// Info returns information on the transport with the given ID.
func (m *ConnectionManager) Info(id string) (ConnectionInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.connections[id]
	if !ok {
		return ConnectionInfo{}, false
	}
	return infoOf(t), true
}

// List returns information on every live transport, oldest first.
func (m *ConnectionManager) List() []ConnectionInfo {
	m.mu.RLock()
	infos := make([]ConnectionInfo, 0, len(m.connections))
	for _, t := range m.connections {
		infos = append(infos, infoOf(t))
	}
	m.mu.RUnlock()

	slices.SortFunc(infos, func(a, b ConnectionInfo) int {
		if c := a.ConnectedAt.Compare(b.ConnectedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return infos
}

func infoOf(t transport.Transport) ConnectionInfo {
	return ConnectionInfo{
		ID:            t.ID(),
		Family:        t.Family().String(),
		Subprotocol:   t.Subprotocol(),
		RemoteAddress: t.RemoteAddress(),
		ConnectedAt:   t.ConnectedAt(),
		Client:        mtls.FromPeerCertificates(t.PeerCertificates(), false),
	}
}

// Stats returns a summary of the tracked transports.
func (m *ConnectionManager) Stats() ManagerStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byFamily := make(map[string]int, len(subprotocol.Families))
	for _, f := range subprotocol.Families {
		byFamily[f.String()] = 0
	}
	for _, t := range m.connections {
		byFamily[t.Family().String()]++
	}
	return ManagerStats{
		Active:   len(m.connections),
		Total:    m.total.Load(),
		ByFamily: byFamily,
		Uptime:   time.Since(m.startTime).Round(time.Second).String(),
	}
}

// CloseAll closes every live transport and returns the combined close
// errors. Transports stay tracked until their owners remove them.
func (m *ConnectionManager) CloseAll() error {
	m.mu.RLock()
	conns := make([]transport.Transport, 0, len(m.connections))
	for _, t := range m.connections {
		conns = append(conns, t)
	}
	m.mu.RUnlock()

	var err error
	for _, t := range conns {
		err = multierr.Append(err, t.Close())
	}
	return err
}
