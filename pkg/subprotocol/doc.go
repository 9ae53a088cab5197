// Package subprotocol negotiates the application-layer sub-protocol of a
// WebSocket upgrade.
//
// Negotiation happens in two steps. Classify inspects the client-offered
// Sec-WebSocket-Protocol tokens and decides which protocol family handles the
// connection. Select then picks the single best token from that family's
// priority table, falling back to the family default when nothing offered is
// registered.
//
// Both steps are pure functions over a Registry, which is immutable once
// built and safe for concurrent use without locking:
//
//	reg := subprotocol.DefaultRegistry()
//	res := subprotocol.Negotiate(reg, subprotocol.ParseHeader(r.Header))
//	// res.Family == subprotocol.FamilySTOMP, res.Token == "v12.stomp"
package subprotocol
