package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/getmockd/wsgate/internal/app"
	"github.com/getmockd/wsgate/pkg/config"
	"github.com/getmockd/wsgate/pkg/logging"
)

// startTimeout bounds application startup.
const startTimeout = 30 * time.Second

// serveFlags holds the flags of the serve command.
type serveFlags struct {
	listen         string
	path           string
	staticDir      string
	maxConnections int
	origins        []string
	compression    bool

	tlsCert    string
	tlsKey     string
	tlsAuto    bool
	clientCA   string
	clientAuth string

	stompUpstream string
	mqttMode      string
	mqttUpstream  string
	mqttListen    string

	logLevel  string
	logFormat string
	noMetrics bool
}

// serveFlagVals is the package-level instance bound to cobra flags.
var serveFlagVals serveFlags

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gateway (foreground)",
	Long: `Start the WebSocket gateway. Upgrades on the configured path are classified as
STOMP or MQTT from the offered sub-protocols and handed to the matching backend:

  STOMP  relayed to --stomp-upstream, or rejected when none is set
  MQTT   served by the embedded broker, relayed, or rejected (--mqtt-mode)

Flags override environment variables, which override the config file.`,
	Example: `  # Start with defaults (embedded MQTT broker on :8080/ws)
  wsgate serve

  # Relay STOMP to a local broker
  wsgate serve --stomp-upstream localhost:61613

  # Serve over TLS with client certificates
  wsgate serve --tls-cert server.crt --tls-key server.key --client-ca ca.crt --client-auth verify-if-given`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, path, err := loadConfig(func(c *config.Config) { applyServeFlags(cmd, c) })
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg, path)
	},
}

func init() {
	f := serveCmd.Flags()
	f.StringVarP(&serveFlagVals.listen, "listen", "l", config.DefaultListen, "Address to listen on")
	f.StringVar(&serveFlagVals.path, "path", config.DefaultPath, "WebSocket upgrade path")
	f.StringVar(&serveFlagVals.staticDir, "static-dir", "", "Directory served to non-upgrade requests on the upgrade path")
	f.IntVar(&serveFlagVals.maxConnections, "max-connections", 0, "Maximum concurrent TCP connections (0 = unlimited)")
	f.StringSliceVar(&serveFlagVals.origins, "origin", nil, "Allowed Origin host pattern (repeatable; default allows any)")
	f.BoolVar(&serveFlagVals.compression, "compression", false, "Enable permessage-deflate")

	f.StringVar(&serveFlagVals.tlsCert, "tls-cert", "", "TLS certificate file")
	f.StringVar(&serveFlagVals.tlsKey, "tls-key", "", "TLS private key file")
	f.BoolVar(&serveFlagVals.tlsAuto, "tls-auto", false, "Serve TLS with a generated self-signed certificate")
	f.StringVar(&serveFlagVals.clientCA, "client-ca", "", "CA bundle used to verify client certificates")
	f.StringVar(&serveFlagVals.clientAuth, "client-auth", "", "Client certificate policy: none, request, require, verify-if-given, require-and-verify")

	f.StringVar(&serveFlagVals.stompUpstream, "stomp-upstream", "", "STOMP broker address (host:port)")
	f.StringVar(&serveFlagVals.mqttMode, "mqtt-mode", config.MQTTModeEmbedded, "MQTT mode: embedded, relay or disabled")
	f.StringVar(&serveFlagVals.mqttUpstream, "mqtt-upstream", "", "MQTT broker address for relay mode (host:port)")
	f.StringVar(&serveFlagVals.mqttListen, "mqtt-listen", "", "Extra TCP listener for the embedded MQTT broker")

	f.StringVar(&serveFlagVals.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error")
	f.StringVar(&serveFlagVals.logFormat, "log-format", config.DefaultLogFormat, "Log format: text or json")
	f.BoolVar(&serveFlagVals.noMetrics, "no-metrics", false, "Disable the Prometheus endpoint")

	rootCmd.AddCommand(serveCmd)
}

// applyServeFlags copies the flags the user set onto cfg.
func applyServeFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	v := serveFlagVals

	if f.Changed("listen") {
		cfg.Server.Listen = v.listen
	}
	if f.Changed("path") {
		cfg.Server.Path = v.path
	}
	if f.Changed("static-dir") {
		cfg.Server.StaticDir = v.staticDir
	}
	if f.Changed("max-connections") {
		cfg.Server.MaxConnections = v.maxConnections
	}
	if f.Changed("origin") {
		cfg.Server.AllowedOrigins = v.origins
	}
	if f.Changed("compression") {
		cfg.Server.Compression = v.compression
	}

	if f.Changed("tls-cert") || f.Changed("tls-key") {
		cfg.TLS.Enabled = true
		cfg.TLS.CertFile = v.tlsCert
		cfg.TLS.KeyFile = v.tlsKey
	}
	if f.Changed("tls-auto") && v.tlsAuto {
		cfg.TLS.Enabled = true
		cfg.TLS.AutoGenerateCert = true
	}
	if f.Changed("client-ca") {
		cfg.TLS.ClientCAFile = v.clientCA
	}
	if f.Changed("client-auth") {
		cfg.TLS.ClientAuth = v.clientAuth
	}

	if f.Changed("stomp-upstream") {
		cfg.STOMP.Upstream = v.stompUpstream
	}
	if f.Changed("mqtt-mode") {
		cfg.MQTT.Mode = v.mqttMode
	}
	if f.Changed("mqtt-upstream") {
		cfg.MQTT.Upstream = v.mqttUpstream
	}
	if f.Changed("mqtt-listen") {
		cfg.MQTT.Listen = v.mqttListen
	}

	if f.Changed("log-level") {
		cfg.Log.Level = v.logLevel
	}
	if f.Changed("log-format") {
		cfg.Log.Format = v.logFormat
	}
	if f.Changed("no-metrics") && v.noMetrics {
		cfg.Metrics.Enabled = false
	}
}

func runServe(ctx context.Context, cfg *config.Config, path string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	log := logging.New(logging.Config{
		Level:  logging.ParseLevel(cfg.Log.Level),
		Format: logging.ParseFormat(cfg.Log.Format),
		Output: os.Stderr,
	})
	if path != "" {
		log.Info("loaded config", "path", path)
	}

	a := app.New(cfg, log)
	if err := a.Err(); err != nil {
		return fmt.Errorf("failed to build gateway: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, startTimeout)
	defer cancel()
	if err := a.Start(startCtx); err != nil {
		return fmt.Errorf("failed to start gateway: %w", err)
	}

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()
	log.Info("shutting down")

	stopCtx, cancelStop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Std())
	defer cancelStop()
	if err := a.Stop(stopCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
