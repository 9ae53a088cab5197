package config

import "time"

// Default values.
const (
	DefaultListen            = ":8080"
	DefaultPath              = "/ws"
	DefaultReadHeaderTimeout = 10 * time.Second
	DefaultShutdownTimeout   = 10 * time.Second
	DefaultDialTimeout       = 10 * time.Second
	DefaultLogLevel          = "info"
	DefaultLogFormat         = "text"
	DefaultMetricsPath       = "/metrics"
)

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{
		Metrics: MetricsConfig{Enabled: true},
	}
	cfg.ApplyDefaults()
	return cfg
}

// ApplyDefaults fills unset fields with their defaults.
func (c *Config) ApplyDefaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}
	if c.Server.Path == "" {
		c.Server.Path = DefaultPath
	}
	if c.Server.ReadHeaderTimeout == 0 {
		c.Server.ReadHeaderTimeout = Duration(DefaultReadHeaderTimeout)
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = Duration(DefaultShutdownTimeout)
	}
	if c.STOMP.DialTimeout == 0 {
		c.STOMP.DialTimeout = Duration(DefaultDialTimeout)
	}
	if c.MQTT.Mode == "" {
		c.MQTT.Mode = MQTTModeEmbedded
	}
	if c.MQTT.DialTimeout == 0 {
		c.MQTT.DialTimeout = Duration(DefaultDialTimeout)
	}
	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
	if c.Log.Format == "" {
		c.Log.Format = DefaultLogFormat
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = DefaultMetricsPath
	}
	if c.TransportOptions == nil {
		c.TransportOptions = map[string]any{}
	}
}
