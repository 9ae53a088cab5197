package gateway

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/wsgate/pkg/metrics"
	"github.com/getmockd/wsgate/pkg/subprotocol"
	"github.com/getmockd/wsgate/pkg/transport"
)

func newTestServer(t *testing.T, m *metrics.Metrics, hopts ...HandlerOption) (*httptest.Server, chan transport.Transport) {
	t.Helper()
	accepted := make(chan transport.Transport, 8)
	d, err := NewDispatcher(subprotocol.DefaultRegistry(), AcceptFunc(func(tr transport.Transport) {
		accepted <- tr
	}), WithMetrics(m), WithTransportOptions(transport.Options{transport.OptionCloseTimeout: "200ms"}))
	require.NoError(t, err)

	h, err := NewHandler(d, hopts...)
	require.NoError(t, err)
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, accepted
}

func wsURL(srv *httptest.Server) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func receive(t *testing.T, ch chan transport.Transport) transport.Transport {
	t.Helper()
	select {
	case tr := <-ch:
		return tr
	case <-time.After(5 * time.Second):
		t.Fatal("no transport accepted")
		return nil
	}
}

func TestHandler_StompUpgrade(t *testing.T) {
	srv, accepted := newTestServer(t, nil)

	dialer := websocket.Dialer{Subprotocols: []string{"v10.stomp", "v12.stomp", "v11.stomp"}}
	conn, resp, err := dialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, http.StatusSwitchingProtocols, resp.StatusCode)
	assert.Equal(t, "v12.stomp", conn.Subprotocol())

	tr := receive(t, accepted)
	defer tr.Close()
	assert.Equal(t, subprotocol.FamilySTOMP, tr.Family())
	assert.Equal(t, "v12.stomp", tr.Subprotocol())
	assert.True(t, strings.HasPrefix(tr.RemoteAddress(), "ws://127.0.0.1:"))

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("CONNECT\n\n\x00")))
	buf := make([]byte, 64)
	n, err := io.ReadAtLeast(tr, buf, len("CONNECT\n\n\x00"))
	require.NoError(t, err)
	assert.Equal(t, "CONNECT\n\n\x00", string(buf[:n]))

	_, err = tr.Write([]byte("CONNECTED\n\n\x00"))
	require.NoError(t, err)
	typ, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.TextMessage, typ)
	assert.Equal(t, "CONNECTED\n\n\x00", string(data))
}

func TestHandler_MQTTUpgrade(t *testing.T) {
	srv, accepted := newTestServer(t, nil)

	dialer := websocket.Dialer{Subprotocols: []string{"mqtt"}}
	conn, _, err := dialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Equal(t, "mqtt", conn.Subprotocol())

	tr := receive(t, accepted)
	defer tr.Close()
	assert.Equal(t, subprotocol.FamilyMQTT, tr.Family())

	_, err = tr.Write([]byte{0x20, 0x02, 0x00, 0x00})
	require.NoError(t, err)
	typ, data, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Equal(t, websocket.BinaryMessage, typ)
	assert.Equal(t, []byte{0x20, 0x02, 0x00, 0x00}, data)
}

func TestHandler_DefaultNotOfferedIsNotEchoed(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)
	srv, accepted := newTestServer(t, m)

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), nil)
	require.NoError(t, err)
	defer conn.Close()
	assert.Empty(t, conn.Subprotocol())

	tr := receive(t, accepted)
	defer tr.Close()
	assert.Equal(t, subprotocol.FamilySTOMP, tr.Family())
	assert.Equal(t, "stomp", tr.Subprotocol())

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `wsgate_negotiation_fallbacks_total{family="stomp"} 1`)
}

func TestHandler_OriginRejected(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)
	srv, accepted := newTestServer(t, m, WithAllowedOrigins("example.com"))

	header := http.Header{"Origin": []string{"http://evil.test"}}
	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	tr := receive(t, accepted)
	_, err = tr.Read(make([]byte, 1))
	assert.ErrorIs(t, err, transport.ErrHandshakeFailed)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `wsgate_handshake_failures_total{reason="handshake"} 1`)
}

func TestHandler_OriginAllowed(t *testing.T) {
	srv, accepted := newTestServer(t, nil, WithAllowedOrigins("example.com"))

	header := http.Header{"Origin": []string{"https://example.com"}}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv), header)
	require.NoError(t, err)
	defer conn.Close()

	tr := receive(t, accepted)
	assert.NoError(t, tr.Close())
}

func TestHandler_NonUpgradeRequests(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<h1>wsgate</h1>"), 0o600))

	tests := []struct {
		name     string
		opts     []HandlerOption
		method   string
		path     string
		wantCode int
		wantBody string
	}{
		{"static file", []HandlerOption{WithStaticDir(dir)}, http.MethodGet, "/index.html", http.StatusOK, "<h1>wsgate</h1>"},
		{"static head", []HandlerOption{WithStaticDir(dir)}, http.MethodHead, "/index.html", http.StatusOK, ""},
		{"no static dir", nil, http.MethodGet, "/", http.StatusNotFound, ""},
		{"custom static", []HandlerOption{WithStaticHandler(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("custom"))
		}))}, http.MethodGet, "/", http.StatusOK, "custom"},
		{"post", []HandlerOption{WithStaticDir(dir)}, http.MethodPost, "/", http.StatusMethodNotAllowed, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := &recordingListener{}
			d, err := NewDispatcher(subprotocol.DefaultRegistry(), l)
			require.NoError(t, err)
			h, err := NewHandler(d, tt.opts...)
			require.NoError(t, err)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.path, nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			if tt.wantBody != "" {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
			assert.Zero(t, l.count())
		})
	}
}

func TestHandler_BadRemoteAddress(t *testing.T) {
	l := &recordingListener{}
	d, err := NewDispatcher(subprotocol.DefaultRegistry(), l)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "garbage"
	req.Header.Set("Connection", "Upgrade")
	req.Header.Set("Upgrade", "websocket")
	req.Header.Set("Sec-WebSocket-Version", "13")
	req.Header.Set("Sec-WebSocket-Key", "dGhlIHNhbXBsZSBub25jZQ==")

	h, err := NewHandler(d)
	require.NoError(t, err)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, l.count())
}

func TestIsWebSocketUpgrade(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.False(t, isWebSocketUpgrade(req))

	req.Header.Set("Connection", "keep-alive, Upgrade")
	req.Header.Set("Upgrade", "WebSocket")
	assert.True(t, isWebSocketUpgrade(req))
}

func TestNewUpgradeRequest(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.5:4000"
	req.Header.Add("Sec-WebSocket-Protocol", "v10.stomp, v11.stomp")
	req.Header.Add("Sec-WebSocket-Protocol", "v12.stomp")

	u := NewUpgradeRequest(req)
	assert.Equal(t, []string{"v10.stomp", "v11.stomp", "v12.stomp"}, u.Subprotocols)
	assert.Equal(t, "192.0.2.5:4000", u.RemoteAddr)
	assert.False(t, u.Secure)
	assert.Nil(t, u.PeerCertificates)
}

func TestNewHandler_NilDispatcher(t *testing.T) {
	h, err := NewHandler(nil)
	assert.ErrorIs(t, err, ErrNoDispatcher)
	assert.Nil(t, h)
}
