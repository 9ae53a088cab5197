// Package gateway turns WebSocket upgrade requests into typed, negotiated
// transports and hands them to an accept listener.
//
// The Dispatcher owns the negotiation: it classifies the offered
// sub-protocols, builds the adapter for the chosen family, selects the
// accepted token, records it on the upgrade response and passes the adapter
// to the AcceptListener exactly once. The Handler binds the Dispatcher to
// net/http, completing the WebSocket handshake with github.com/coder/websocket
// and serving plain GET requests from a static-content handler.
//
//	d, err := gateway.NewDispatcher(subprotocol.DefaultRegistry(), acceptor,
//		gateway.WithTransportOptions(transport.Options{"maxFrameSize": 65536}),
//	)
//	if err != nil {
//		return err // no accept listener configured
//	}
//	h, err := gateway.NewHandler(d, gateway.WithStaticDir("./www"))
//	if err != nil {
//		return err
//	}
//	mux.Handle("/ws", h)
package gateway
