package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Environment variable names
const (
	EnvConfig         = "WSGATE_CONFIG"
	EnvListen         = "WSGATE_LISTEN"
	EnvPath           = "WSGATE_PATH"
	EnvStaticDir      = "WSGATE_STATIC_DIR"
	EnvMaxConnections = "WSGATE_MAX_CONNECTIONS"
	EnvAutoCert       = "WSGATE_AUTO_CERT"
	EnvStompUpstream  = "WSGATE_STOMP_UPSTREAM"
	EnvMQTTMode       = "WSGATE_MQTT_MODE"
	EnvMQTTUpstream   = "WSGATE_MQTT_UPSTREAM"
	EnvLogLevel       = "WSGATE_LOG_LEVEL"
	EnvLogFormat      = "WSGATE_LOG_FORMAT"
	EnvShutdown       = "WSGATE_SHUTDOWN_TIMEOUT"
)

// LocalConfigFileNames are searched in the working directory, in order.
var LocalConfigFileNames = []string{"wsgate.yaml", "wsgate.yml", "wsgate.json"}

// FindConfigFile returns the config file named by WSGATE_CONFIG, or the
// first local config file in the current directory. It returns "" when
// there is none.
func FindConfigFile() string {
	if v := os.Getenv(EnvConfig); v != "" {
		return v
	}
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}
	for _, name := range LocalConfigFileNames {
		path := filepath.Join(cwd, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ApplyEnv overrides cfg with the values present in the environment.
// Malformed numeric and boolean values are ignored.
func ApplyEnv(cfg *Config) {
	setString(&cfg.Server.Listen, EnvListen)
	setString(&cfg.Server.Path, EnvPath)
	setString(&cfg.Server.StaticDir, EnvStaticDir)
	setString(&cfg.STOMP.Upstream, EnvStompUpstream)
	setString(&cfg.MQTT.Mode, EnvMQTTMode)
	setString(&cfg.MQTT.Upstream, EnvMQTTUpstream)
	setString(&cfg.Log.Level, EnvLogLevel)
	setString(&cfg.Log.Format, EnvLogFormat)

	if v := os.Getenv(EnvMaxConnections); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MaxConnections = n
		}
	}

	if v := os.Getenv(EnvAutoCert); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.TLS.Enabled = cfg.TLS.Enabled || b
			cfg.TLS.AutoGenerateCert = b
		}
	}

	if v := os.Getenv(EnvShutdown); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Server.ShutdownTimeout = Duration(d)
		}
	}
}

func setString(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}
