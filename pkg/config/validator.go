package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/getmockd/wsgate/pkg/subprotocol"
	"github.com/getmockd/wsgate/pkg/transport"
)

// ErrInvalidConfig is wrapped by every ValidationError.
var ErrInvalidConfig = errors.New("invalid configuration")

// ValidationError reports an invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on %s: %s", e.Field, e.Message)
}

// Unwrap returns ErrInvalidConfig.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidConfig
}

// validClientAuthValues are the allowed mTLS client authentication policies.
var validClientAuthValues = map[string]bool{
	"none":               true,
	"request":            true,
	"require":            true,
	"verify-if-given":    true,
	"require-and-verify": true,
}

// reservedPaths are served by the gateway's operational endpoints.
var reservedPaths = map[string]bool{
	"/healthz":     true,
	"/connections": true,
}

var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

var validLogFormats = map[string]bool{
	"text": true,
	"json": true,
}

// validateFilePath checks if a file path is valid and the file exists.
// Returns nil if the path is empty (considered optional) or valid.
func validateFilePath(path, fieldName string) error {
	if path == "" {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &ValidationError{
				Field:   fieldName,
				Message: fmt.Sprintf("file does not exist: %s", path),
			}
		}
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("cannot access file: %s", err.Error()),
		}
	}

	if info.IsDir() {
		return &ValidationError{
			Field:   fieldName,
			Message: fmt.Sprintf("path is a directory, not a file: %s", path),
		}
	}
	return nil
}

// Validate checks the whole configuration and returns the first problem.
func (c *Config) Validate() error {
	validators := []func() error{
		c.Server.Validate,
		c.TLS.Validate,
		c.validateTransportOptions,
		c.validateSubprotocols,
		c.MQTT.Validate,
		c.Log.Validate,
		c.validateMetrics,
	}
	for _, v := range validators {
		if err := v(); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the server section.
func (s *ServerConfig) Validate() error {
	if s.Listen == "" {
		return &ValidationError{Field: "server.listen", Message: "listen address is required"}
	}
	if !strings.HasPrefix(s.Path, "/") {
		return &ValidationError{Field: "server.path", Message: fmt.Sprintf("path must start with /: %q", s.Path)}
	}
	if reservedPaths[s.Path] {
		return &ValidationError{Field: "server.path", Message: fmt.Sprintf("path is reserved: %s", s.Path)}
	}
	if s.MaxConnections < 0 {
		return &ValidationError{Field: "server.maxConnections", Message: "must not be negative"}
	}
	if s.StaticDir != "" {
		info, err := os.Stat(s.StaticDir)
		if err != nil || !info.IsDir() {
			return &ValidationError{Field: "server.staticDir", Message: fmt.Sprintf("not a directory: %s", s.StaticDir)}
		}
	}
	return nil
}

// Validate checks if the TLSConfig is valid.
func (t *TLSConfig) Validate() error {
	if !t.Enabled {
		return nil
	}

	// Either AutoGenerateCert must be true OR both CertFile and KeyFile must be provided
	if !t.AutoGenerateCert {
		if t.CertFile == "" && t.KeyFile == "" {
			return &ValidationError{
				Field:   "tls",
				Message: "when enabled, either autoGenerateCert must be true or both certFile and keyFile must be provided",
			}
		}
		if t.CertFile == "" {
			return &ValidationError{Field: "tls.certFile", Message: "certFile is required when autoGenerateCert is false"}
		}
		if t.KeyFile == "" {
			return &ValidationError{Field: "tls.keyFile", Message: "keyFile is required when autoGenerateCert is false"}
		}
		if err := validateFilePath(t.CertFile, "tls.certFile"); err != nil {
			return err
		}
		if err := validateFilePath(t.KeyFile, "tls.keyFile"); err != nil {
			return err
		}
	}

	if t.ClientAuth != "" && !validClientAuthValues[t.ClientAuth] {
		return &ValidationError{
			Field:   "tls.clientAuth",
			Message: fmt.Sprintf("invalid clientAuth value: %s (must be one of: none, request, require, verify-if-given, require-and-verify)", t.ClientAuth),
		}
	}
	if (t.ClientAuth == "verify-if-given" || t.ClientAuth == "require-and-verify") && t.ClientCAFile == "" {
		return &ValidationError{Field: "tls.clientCAFile", Message: fmt.Sprintf("required for clientAuth %s", t.ClientAuth)}
	}
	return validateFilePath(t.ClientCAFile, "tls.clientCAFile")
}

// Validate checks the mqtt section.
func (m *MQTTConfig) Validate() error {
	switch m.Mode {
	case MQTTModeEmbedded, MQTTModeDisabled:
	case MQTTModeRelay:
		if m.Upstream == "" {
			return &ValidationError{Field: "mqtt.upstream", Message: "upstream is required in relay mode"}
		}
	default:
		return &ValidationError{
			Field:   "mqtt.mode",
			Message: fmt.Sprintf("invalid mode: %s (must be one of: embedded, relay, disabled)", m.Mode),
		}
	}
	return nil
}

// Validate checks the log section.
func (l *LogConfig) Validate() error {
	if !validLogLevels[strings.ToLower(l.Level)] {
		return &ValidationError{Field: "log.level", Message: fmt.Sprintf("invalid level: %s", l.Level)}
	}
	if !validLogFormats[strings.ToLower(l.Format)] {
		return &ValidationError{Field: "log.format", Message: fmt.Sprintf("invalid format: %s", l.Format)}
	}
	return nil
}

func (c *Config) validateMetrics() error {
	if !c.Metrics.Enabled {
		return nil
	}
	if !strings.HasPrefix(c.Metrics.Path, "/") {
		return &ValidationError{Field: "metrics.path", Message: fmt.Sprintf("path must start with /: %q", c.Metrics.Path)}
	}
	if c.Metrics.Path == c.Server.Path {
		return &ValidationError{Field: "metrics.path", Message: "must differ from server.path"}
	}
	return nil
}

func (c *Config) validateTransportOptions() error {
	opts := transport.Options(c.TransportOptions)
	for _, key := range []string{transport.OptionMaxFrameSize} {
		if _, set := opts[key]; !set {
			continue
		}
		if n, ok := opts.Int(key); !ok || n <= 0 {
			return &ValidationError{Field: "transportOptions." + key, Message: "must be a positive integer"}
		}
	}
	if _, set := opts[transport.OptionCloseTimeout]; set {
		if d, ok := opts.Duration(transport.OptionCloseTimeout); !ok || d <= 0 {
			return &ValidationError{Field: "transportOptions." + transport.OptionCloseTimeout, Message: "must be a positive duration"}
		}
	}
	return nil
}

func (c *Config) validateSubprotocols() error {
	if _, err := c.Registry(); err != nil {
		return &ValidationError{Field: "subprotocols", Message: err.Error()}
	}
	return nil
}

// Registry builds the sub-protocol registry. Without a subprotocols section
// the built-in tables are used; a section replaces the tables of the
// families it names.
func (c *Config) Registry() (*subprotocol.Registry, error) {
	if len(c.Subprotocols) == 0 {
		return subprotocol.DefaultRegistry(), nil
	}

	tables := subprotocol.DefaultTables()
	for name, table := range c.Subprotocols {
		family, ok := subprotocol.ParseFamily(name)
		if !ok {
			return nil, fmt.Errorf("%w: %q", subprotocol.ErrUnknownFamily, name)
		}
		tables[family] = table
	}
	return subprotocol.NewRegistry(tables)
}

// Options returns a copy of the transport options.
func (c *Config) Options() transport.Options {
	return transport.Options(c.TransportOptions).Clone()
}
