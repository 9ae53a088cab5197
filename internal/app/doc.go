// Package app assembles the gateway with go.uber.org/fx: configuration,
// sub-protocol registry, metrics, accept side, dispatcher and HTTP server,
// each started and stopped through the fx lifecycle.
package app
