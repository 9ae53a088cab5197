package gateway

import (
	"log/slog"
	"net/http"
	"strings"

	ws "github.com/coder/websocket"

	"github.com/getmockd/wsgate/pkg/metrics"
)

// Handler serves a gateway endpoint. WebSocket upgrades are negotiated by
// the Dispatcher; plain GET and HEAD requests go to the static handler.
type Handler struct {
	dispatcher     *Dispatcher
	static         http.Handler
	originPatterns []string
	compression    bool
}

// NewHandler creates a Handler for d. It returns ErrNoDispatcher when d is
// nil.
func NewHandler(d *Dispatcher, opts ...HandlerOption) (*Handler, error) {
	if d == nil {
		return nil, ErrNoDispatcher
	}
	h := &Handler{
		dispatcher: d,
		static:     http.NotFoundHandler(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h, nil
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !isWebSocketUpgrade(r) {
		switch r.Method {
		case http.MethodGet, http.MethodHead:
			h.static.ServeHTTP(w, r)
		default:
			w.Header().Set("Allow", "GET, HEAD")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	h.handleUpgrade(w, r)
}

func (h *Handler) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	resp := &handshakeResponse{}
	adapter, err := h.dispatcher.OnUpgrade(NewUpgradeRequest(r), resp)
	if err != nil {
		http.Error(w, "websocket handshake failed", http.StatusBadRequest)
		return
	}

	acceptOpts := &ws.AcceptOptions{
		Subprotocols:       []string{resp.subprotocol},
		InsecureSkipVerify: len(h.originPatterns) == 0,
		OriginPatterns:     h.originPatterns,
		CompressionMode:    ws.CompressionDisabled,
	}
	if h.compression {
		acceptOpts.CompressionMode = ws.CompressionContextTakeover
	}

	// Accept writes its own error response on failure.
	c, err := ws.Accept(w, r, acceptOpts)
	if err != nil {
		h.dispatcher.metrics.HandshakeFailed(metrics.ReasonHandshake)
		h.log().Warn("websocket handshake failed",
			"id", adapter.ID(),
			"remote", adapter.RemoteAddress(),
			"error", err,
		)
		adapter.Abort(err)
		return
	}

	if err := adapter.Bind(c); err != nil {
		// The accept listener closed the transport before the handshake
		// completed.
		h.log().Debug("transport closed before bind",
			"id", adapter.ID(),
			"error", err,
		)
		_ = c.CloseNow()
	}
}

func (h *Handler) log() *slog.Logger {
	return h.dispatcher.log
}

// isWebSocketUpgrade checks if the request is a WebSocket upgrade request.
func isWebSocketUpgrade(r *http.Request) bool {
	conn := r.Header.Get("Connection")
	if !strings.Contains(strings.ToLower(conn), "upgrade") {
		return false
	}
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
