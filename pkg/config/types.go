package config

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// MQTT modes.
const (
	MQTTModeEmbedded = "embedded"
	MQTTModeRelay    = "relay"
	MQTTModeDisabled = "disabled"
)

// Config is the gateway configuration.
type Config struct {
	Server           ServerConfig              `json:"server" yaml:"server"`
	TLS              TLSConfig                 `json:"tls" yaml:"tls"`
	TransportOptions map[string]any            `json:"transportOptions,omitempty" yaml:"transportOptions,omitempty"`
	Subprotocols     map[string]map[string]int `json:"subprotocols,omitempty" yaml:"subprotocols,omitempty"`
	STOMP            STOMPConfig               `json:"stomp" yaml:"stomp"`
	MQTT             MQTTConfig                `json:"mqtt" yaml:"mqtt"`
	Log              LogConfig                 `json:"log" yaml:"log"`
	Metrics          MetricsConfig             `json:"metrics" yaml:"metrics"`
}

// ServerConfig configures the HTTP endpoint.
type ServerConfig struct {
	Listen            string   `json:"listen" yaml:"listen"`
	Path              string   `json:"path" yaml:"path"`
	StaticDir         string   `json:"staticDir,omitempty" yaml:"staticDir,omitempty"`
	MaxConnections    int      `json:"maxConnections,omitempty" yaml:"maxConnections,omitempty"`
	ReadHeaderTimeout Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
	ShutdownTimeout   Duration `json:"shutdownTimeout" yaml:"shutdownTimeout"`
	AllowedOrigins    []string `json:"allowedOrigins,omitempty" yaml:"allowedOrigins,omitempty"`
	Compression       bool     `json:"compression,omitempty" yaml:"compression,omitempty"`
}

// TLSConfig configures HTTPS and client certificates.
type TLSConfig struct {
	Enabled          bool   `json:"enabled" yaml:"enabled"`
	CertFile         string `json:"certFile,omitempty" yaml:"certFile,omitempty"`
	KeyFile          string `json:"keyFile,omitempty" yaml:"keyFile,omitempty"`
	AutoGenerateCert bool   `json:"autoGenerateCert,omitempty" yaml:"autoGenerateCert,omitempty"`
	ClientCAFile     string `json:"clientCAFile,omitempty" yaml:"clientCAFile,omitempty"`
	ClientAuth       string `json:"clientAuth,omitempty" yaml:"clientAuth,omitempty"`
}

// STOMPConfig configures where STOMP transports are relayed. With no
// upstream, STOMP transports are rejected.
type STOMPConfig struct {
	Upstream    string   `json:"upstream,omitempty" yaml:"upstream,omitempty"`
	DialTimeout Duration `json:"dialTimeout" yaml:"dialTimeout"`
}

// MQTTConfig configures how MQTT transports are served.
type MQTTConfig struct {
	// Mode is embedded, relay or disabled.
	Mode        string   `json:"mode" yaml:"mode"`
	Upstream    string   `json:"upstream,omitempty" yaml:"upstream,omitempty"`
	Listen      string   `json:"listen,omitempty" yaml:"listen,omitempty"`
	DialTimeout Duration `json:"dialTimeout" yaml:"dialTimeout"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

// Duration is a time.Duration written as a Go duration string ("10s").
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// String returns the duration string.
func (d Duration) String() string {
	return time.Duration(d).String()
}

// MarshalJSON implements json.Marshaler.
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler. Numbers are read as seconds.
func (d *Duration) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	return d.set(v)
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler. Numbers are read as seconds.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var v any
	if err := value.Decode(&v); err != nil {
		return err
	}
	return d.set(v)
}

func (d *Duration) set(v any) error {
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		*d = Duration(parsed)
	case int:
		*d = Duration(time.Duration(val) * time.Second)
	case float64:
		*d = Duration(time.Duration(val * float64(time.Second)))
	default:
		return fmt.Errorf("invalid duration %v", v)
	}
	return nil
}
