// Package mtls extracts client identity from the certificate chain a peer
// presented during the TLS handshake of a WebSocket upgrade.
package mtls

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"log/slog"
	"time"
)

// ClientIdentity is the identity carried by a client certificate.
type ClientIdentity struct {
	CommonName   string    `json:"commonName"`
	Organization []string  `json:"organization,omitempty"`
	SerialNumber string    `json:"serialNumber"`
	Issuer       string    `json:"issuer"`
	NotAfter     time.Time `json:"notAfter"`
	DNSNames     []string  `json:"dnsNames,omitempty"`
	Fingerprint  string    `json:"fingerprint"` // SHA256 fingerprint
	Verified     bool      `json:"verified"`
}

// ExtractIdentity extracts identity information from an x509 certificate.
// The verified parameter indicates whether the certificate was successfully
// verified against the CA chain.
func ExtractIdentity(cert *x509.Certificate, verified bool) *ClientIdentity {
	if cert == nil {
		return nil
	}

	identity := &ClientIdentity{
		CommonName:   cert.Subject.CommonName,
		Organization: copyStrings(cert.Subject.Organization),
		Issuer:       cert.Issuer.CommonName,
		NotAfter:     cert.NotAfter.UTC(),
		DNSNames:     copyStrings(cert.DNSNames),
		Fingerprint:  Fingerprint(cert),
		Verified:     verified,
	}
	if cert.SerialNumber != nil {
		identity.SerialNumber = cert.SerialNumber.String()
	}
	return identity
}

// FromPeerCertificates returns the identity of the leaf certificate of a
// peer chain, or nil when the chain is empty.
func FromPeerCertificates(certs []*x509.Certificate, verified bool) *ClientIdentity {
	if len(certs) == 0 {
		return nil
	}
	return ExtractIdentity(certs[0], verified)
}

// LogValue implements slog.LogValuer.
func (c *ClientIdentity) LogValue() slog.Value {
	if c == nil {
		return slog.Value{}
	}
	return slog.GroupValue(
		slog.String("cn", c.CommonName),
		slog.String("fingerprint", c.Fingerprint),
	)
}

// Fingerprint calculates the SHA256 fingerprint of a certificate.
// The fingerprint is returned as a lowercase hexadecimal string.
func Fingerprint(cert *x509.Certificate) string {
	if cert == nil {
		return ""
	}
	sum := sha256.Sum256(cert.Raw)
	return hex.EncodeToString(sum[:])
}

// copyStrings creates a copy of a string slice to avoid sharing underlying arrays.
// Returns nil if the input is nil or empty.
func copyStrings(src []string) []string {
	if len(src) == 0 {
		return nil
	}
	dst := make([]string, len(src))
	copy(dst, src)
	return dst
}
