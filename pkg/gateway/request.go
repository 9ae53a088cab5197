package gateway

import (
	"crypto/x509"
	"fmt"
	"net"
	"net/http"

	"github.com/getmockd/wsgate/pkg/subprotocol"
)

// UpgradeRequest is the negotiation input of one WebSocket upgrade.
type UpgradeRequest struct {
	// Subprotocols are the client-offered tokens in the order received.
	Subprotocols []string
	// RemoteAddr is the peer's host:port.
	RemoteAddr string
	// Secure reports whether the upgrade arrived over TLS.
	Secure bool
	// PeerCertificates is the client certificate chain, if any.
	PeerCertificates []*x509.Certificate
}

// NewUpgradeRequest extracts the negotiation input from r.
func NewUpgradeRequest(r *http.Request) *UpgradeRequest {
	req := &UpgradeRequest{
		Subprotocols: subprotocol.ParseHeader(r.Header),
		RemoteAddr:   r.RemoteAddr,
		Secure:       r.TLS != nil,
	}
	if r.TLS != nil {
		req.PeerCertificates = r.TLS.PeerCertificates
	}
	return req
}

// UpgradeResponse receives the accepted sub-protocol so it can be echoed to
// the client in the handshake response.
type UpgradeResponse interface {
	SetAcceptedSubprotocol(token string)
}

// GenerateRemoteAddress returns the peer address as ws://host:port, or
// wss://host:port for upgrades received over TLS.
func GenerateRemoteAddress(req *UpgradeRequest) (string, error) {
	host, port, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrRemoteAddress, req.RemoteAddr, err)
	}
	if host == "" || port == "" {
		return "", fmt.Errorf("%w: %q", ErrRemoteAddress, req.RemoteAddr)
	}

	scheme := "ws://"
	if req.Secure {
		scheme = "wss://"
	}
	return scheme + net.JoinHostPort(host, port), nil
}

// handshakeResponse records the accepted token for the handshake.
type handshakeResponse struct {
	subprotocol string
}

func (r *handshakeResponse) SetAcceptedSubprotocol(token string) {
	r.subprotocol = token
}
