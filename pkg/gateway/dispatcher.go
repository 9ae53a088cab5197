package gateway

import (
	"crypto/x509"
	"log/slog"
	"reflect"
	"slices"

	"github.com/getmockd/wsgate/pkg/logging"
	"github.com/getmockd/wsgate/pkg/metrics"
	"github.com/getmockd/wsgate/pkg/subprotocol"
	"github.com/getmockd/wsgate/pkg/transport"
)

// Dispatcher negotiates one upgrade at a time and hands the resulting
// adapter to its AcceptListener. It holds no per-upgrade state and is safe
// for concurrent use.
type Dispatcher struct {
	registry *subprotocol.Registry
	listener AcceptListener
	options  transport.Options
	log      *slog.Logger
	metrics  *metrics.Metrics
}

// NewDispatcher creates a Dispatcher. It returns ErrNoAcceptListener when
// listener is nil, including a typed nil such as AcceptFunc(nil), and
// ErrNoRegistry when reg is nil.
func NewDispatcher(reg *subprotocol.Registry, listener AcceptListener, opts ...Option) (*Dispatcher, error) {
	if isNil(listener) {
		return nil, ErrNoAcceptListener
	}
	if reg == nil {
		return nil, ErrNoRegistry
	}

	d := &Dispatcher{
		registry: reg,
		listener: listener,
		options:  transport.Options{},
		log:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// OnUpgrade negotiates req, records the accepted token on resp and passes the
// new adapter to the accept listener exactly once. The returned adapter is
// still pending: the caller must Bind it to the established WebSocket
// connection or Abort it.
//
// An error means no adapter was created and the listener was not called.
func (d *Dispatcher) OnUpgrade(req *UpgradeRequest, resp UpgradeResponse) (transport.Adapter, error) {
	if req == nil {
		return nil, ErrNilRequest
	}

	family := subprotocol.Classify(req.Subprotocols)

	remote, err := GenerateRemoteAddress(req)
	if err != nil {
		d.metrics.HandshakeFailed(metrics.ReasonRemoteAddress)
		d.log.Warn("upgrade rejected",
			"family", family.String(),
			"remoteAddr", req.RemoteAddr,
			"error", err,
		)
		return nil, err
	}

	adapter := d.newAdapter(family, remote, req.PeerCertificates)

	token := subprotocol.Select(req.Subprotocols, d.registry.Lookup(family), family.DefaultToken())
	adapter.SetSubprotocol(token)
	if resp != nil {
		resp.SetAcceptedSubprotocol(token)
	}

	fallback := !slices.Contains(req.Subprotocols, token)
	d.metrics.ObserveNegotiation(family.String(), token, fallback)
	d.log.Debug("sub-protocol negotiated",
		"id", adapter.ID(),
		"family", family.String(),
		"subprotocol", token,
		"remote", remote,
		"offered", req.Subprotocols,
		"fallback", fallback,
	)

	d.listener.OnAccept(adapter)
	return adapter, nil
}

// newAdapter builds the adapter variant for family. Both variants receive
// their certificates and a private copy of the transport options before they
// are exposed.
func (d *Dispatcher) newAdapter(family subprotocol.Family, remote string, certs []*x509.Certificate) transport.Adapter {
	switch family {
	case subprotocol.FamilyMQTT:
		s := transport.NewMQTTSocket(remote, certs)
		s.SetTransportOptions(d.options)
		return s
	default:
		s := transport.NewStompSocket(remote, d.options)
		s.SetCertificates(certs)
		return s
	}
}

// isNil reports whether v is nil or an interface holding a nil pointer,
// func, map, chan or slice.
func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Func, reflect.Map, reflect.Chan, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	default:
		return false
	}
}
