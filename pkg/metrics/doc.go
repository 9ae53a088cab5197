// Package metrics exposes gateway metrics through Prometheus collectors.
//
// # Collectors
//
//   - wsgate_negotiations_total: Counter of completed negotiations (labels: family, subprotocol)
//   - wsgate_negotiation_fallbacks_total: Counter of negotiations that used the family default (labels: family)
//   - wsgate_handshake_failures_total: Counter of failed upgrades (labels: reason)
//   - wsgate_active_transports: Gauge of accepted, still-open transports (labels: family)
//   - wsgate_transport_duration_seconds: Histogram of transport lifetimes (labels: family)
//
// # Label Conventions
//
// All label values are lowercase:
//
//   - family: stomp, mqtt
//   - subprotocol: the accepted token, e.g. v12.stomp, mqttv3.1
//   - reason: remote_address, handshake, listener
//
// Collectors are registered on a caller-supplied prometheus.Registerer so
// several gateways (or tests) can coexist in one process.
package metrics
