package broker

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/wsgate/pkg/gateway"
	"github.com/getmockd/wsgate/pkg/metrics"
	"github.com/getmockd/wsgate/pkg/subprotocol"
	"github.com/getmockd/wsgate/pkg/transport"
)

func waitDone(t *testing.T, tr transport.Transport) {
	t.Helper()
	select {
	case <-tr.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("transport %s not closed", tr.ID())
	}
}

// newGatewayServer serves a gateway endpoint backed by a.
func newGatewayServer(t *testing.T, a *Acceptor) *httptest.Server {
	t.Helper()
	d, err := gateway.NewDispatcher(subprotocol.DefaultRegistry(), a,
		gateway.WithTransportOptions(transport.Options{transport.OptionCloseTimeout: "200ms"}),
	)
	require.NoError(t, err)
	h, err := gateway.NewHandler(d)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestAcceptor_RoutesByFamily(t *testing.T) {
	stompServed := make(chan transport.Transport, 1)
	mqttServed := make(chan transport.Transport, 1)

	m, err := metrics.New()
	require.NoError(t, err)

	a := NewAcceptor(nil,
		WithHandler(subprotocol.FamilySTOMP, HandlerFunc(func(_ context.Context, tr transport.Transport) error {
			stompServed <- tr
			return nil
		})),
		WithHandler(subprotocol.FamilyMQTT, HandlerFunc(func(_ context.Context, tr transport.Transport) error {
			mqttServed <- tr
			return errors.New("upstream gone")
		})),
		WithMetrics(m),
	)

	s := transport.NewStompSocket("ws://10.0.0.1:1", nil)
	q := transport.NewMQTTSocket("ws://10.0.0.1:2", nil)
	a.OnAccept(s)
	a.OnAccept(q)

	assert.Same(t, s, (<-stompServed).(*transport.StompSocket))
	assert.Same(t, q, (<-mqttServed).(*transport.MQTTSocket))

	waitDone(t, s)
	waitDone(t, q)
	assert.Eventually(t, func() bool { return a.Manager().Count() == 0 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, int64(2), a.Manager().Stats().Total)
}

func TestAcceptor_MissingHandlerRejects(t *testing.T) {
	a := NewAcceptor(nil)
	q := transport.NewMQTTSocket("ws://10.0.0.1:2", nil)
	a.OnAccept(q)

	assert.Equal(t, 1, a.Manager().Count())
	q.Abort(errors.New("origin not allowed"))

	waitDone(t, q)
	assert.Eventually(t, func() bool { return a.Manager().Count() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestAcceptor_RejectOverWebSocket(t *testing.T) {
	a := NewAcceptor(nil)
	srv := newGatewayServer(t, a)

	dialer := websocket.Dialer{Subprotocols: []string{"v12.stomp"}}
	conn, _, err := dialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation), "got %v", err)
	assert.Eventually(t, func() bool { return a.Manager().Count() == 0 }, 5*time.Second, 10*time.Millisecond)
}

func TestAcceptor_Shutdown(t *testing.T) {
	a := NewAcceptor(nil, WithHandler(subprotocol.FamilySTOMP, HandlerFunc(func(ctx context.Context, tr transport.Transport) error {
		select {
		case <-tr.Done():
		case <-ctx.Done():
		}
		return nil
	})))

	var accepted []transport.Transport
	for i := 0; i < 3; i++ {
		s := transport.NewStompSocket("ws://10.0.0.1:1", nil)
		a.OnAccept(s)
		accepted = append(accepted, s)
	}
	assert.Equal(t, 3, a.Manager().Count())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, a.Shutdown(ctx))
	require.NoError(t, a.Shutdown(ctx))

	for _, tr := range accepted {
		waitDone(t, tr)
	}
	assert.Equal(t, 0, a.Manager().Count())

	late := transport.NewStompSocket("ws://10.0.0.1:1", nil)
	a.OnAccept(late)
	waitDone(t, late)
	assert.Equal(t, 0, a.Manager().Count())
}

func TestAcceptor_StaticFallbackUnaffected(t *testing.T) {
	a := NewAcceptor(nil)
	srv := newGatewayServer(t, a)

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, 0, a.Manager().Count())
}
