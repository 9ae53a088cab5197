package app

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/getmockd/wsgate/pkg/broker"
	"github.com/getmockd/wsgate/pkg/config"
	"github.com/getmockd/wsgate/pkg/gateway"
	"github.com/getmockd/wsgate/pkg/logging"
	"github.com/getmockd/wsgate/pkg/metrics"
	"github.com/getmockd/wsgate/pkg/subprotocol"
)

func newRegistry(cfg *config.Config) (*subprotocol.Registry, error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("failed to build sub-protocol registry: %w", err)
	}
	return reg, nil
}

// newMetrics returns nil when metrics are disabled; a nil *metrics.Metrics
// records nothing.
func newMetrics(cfg *config.Config) (*metrics.Metrics, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil
	}
	return metrics.New()
}

// newMQTTBroker returns nil unless MQTT runs embedded.
func newMQTTBroker(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*broker.MQTTBroker, error) {
	if cfg.MQTT.Mode != config.MQTTModeEmbedded {
		return nil, nil
	}

	b, err := broker.NewMQTTBroker(broker.MQTTConfig{Listen: cfg.MQTT.Listen}, logging.Component(log, "mqtt"))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStart: b.Start,
		OnStop: func(ctx context.Context) error {
			return b.Stop(ctx, cfg.Server.ShutdownTimeout.Std())
		},
	})
	return b, nil
}

func newAcceptor(
	cfg *config.Config,
	log *slog.Logger,
	m *metrics.Metrics,
	mgr *broker.ConnectionManager,
	mq *broker.MQTTBroker,
) (*broker.Acceptor, error) {
	opts := []broker.Option{
		broker.WithLogger(logging.Component(log, "acceptor")),
		broker.WithMetrics(m),
	}

	if cfg.STOMP.Upstream != "" {
		relay, err := broker.NewRelay(cfg.STOMP.Upstream, cfg.STOMP.DialTimeout.Std(), logging.Component(log, "stomp-relay"))
		if err != nil {
			return nil, err
		}
		log.Info("relaying STOMP transports", "upstream", relay.Upstream())
		opts = append(opts, broker.WithHandler(subprotocol.FamilySTOMP, relay))
	}

	switch cfg.MQTT.Mode {
	case config.MQTTModeEmbedded:
		opts = append(opts, broker.WithHandler(subprotocol.FamilyMQTT, mq))
	case config.MQTTModeRelay:
		relay, err := broker.NewRelay(cfg.MQTT.Upstream, cfg.MQTT.DialTimeout.Std(), logging.Component(log, "mqtt-relay"))
		if err != nil {
			return nil, err
		}
		log.Info("relaying MQTT transports", "upstream", relay.Upstream())
		opts = append(opts, broker.WithHandler(subprotocol.FamilyMQTT, relay))
	}

	return broker.NewAcceptor(mgr, opts...), nil
}

func newDispatcher(
	cfg *config.Config,
	log *slog.Logger,
	reg *subprotocol.Registry,
	acc *broker.Acceptor,
	m *metrics.Metrics,
) (*gateway.Dispatcher, error) {
	return gateway.NewDispatcher(reg, acc,
		gateway.WithTransportOptions(cfg.Options()),
		gateway.WithLogger(logging.Component(log, "gateway")),
		gateway.WithMetrics(m),
	)
}
