// Package broker implements the accept side of the gateway.
//
// An Acceptor receives every negotiated transport from the gateway, tracks it
// in a ConnectionManager and hands it to the TransportHandler registered for
// its protocol family:
//
//   - MQTTBroker attaches MQTT transports to an embedded mochi-mqtt server.
//   - Relay pipes the transport's byte stream to an upstream TCP broker.
//   - Reject closes the transport with a policy-violation close frame.
//
// Families without a handler are rejected.
package broker
