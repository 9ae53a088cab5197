package tls

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"

	"github.com/getmockd/wsgate/pkg/config"
)

// ErrInvalidClientAuth indicates an unknown client authentication policy.
var ErrInvalidClientAuth = errors.New("invalid client auth policy")

// ParseClientAuth maps a policy name to a tls.ClientAuthType. An empty name
// means "none".
func ParseClientAuth(s string) (tls.ClientAuthType, error) {
	switch s {
	case "", "none":
		return tls.NoClientCert, nil
	case "request":
		return tls.RequestClientCert, nil
	case "require":
		return tls.RequireAnyClientCert, nil
	case "verify-if-given":
		return tls.VerifyClientCertIfGiven, nil
	case "require-and-verify":
		return tls.RequireAndVerifyClientCert, nil
	default:
		return tls.NoClientCert, fmt.Errorf("%w: %s", ErrInvalidClientAuth, s)
	}
}

// LoadCertPool reads PEM certificates from path into a new pool.
func LoadCertPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("no certificates found in %s", path)
	}
	return pool, nil
}

// NewServerConfig builds the server TLS configuration for a gateway
// listening on listen. It returns nil when TLS is disabled.
func NewServerConfig(cfg config.TLSConfig, listen string) (*tls.Config, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	var cert tls.Certificate
	var err error
	if cfg.AutoGenerateCert {
		cert, err = SelfSignedCertificate(listen)
	} else {
		cert, err = tls.LoadX509KeyPair(cfg.CertFile, cfg.KeyFile)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load TLS certificates: %w", err)
	}

	clientAuth, err := ParseClientAuth(cfg.ClientAuth)
	if err != nil {
		return nil, err
	}

	tlsConfig := &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
		ClientAuth:   clientAuth,
	}
	if cfg.ClientCAFile != "" {
		pool, err := LoadCertPool(cfg.ClientCAFile)
		if err != nil {
			return nil, err
		}
		tlsConfig.ClientCAs = pool
	}
	return tlsConfig, nil
}
