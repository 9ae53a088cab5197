// Package transport provides the protocol-specific connection adapters that
// own a WebSocket connection once its sub-protocol has been negotiated.
//
// An adapter is created before the WebSocket handshake completes and can be
// handed to an accept listener right away. Reads and writes block until the
// upgrade layer attaches the established connection with Bind, or fail once
// Abort records a handshake error. From then on the adapter behaves as a
// plain net.Conn carrying the sub-protocol's byte stream:
//
//   - StompSocket carries STOMP frames as WebSocket text messages.
//   - MQTTSocket carries MQTT packets as WebSocket binary messages.
//
// Each adapter holds its own copy of the transport options, so changing one
// connection's options never affects another.
package transport
