package app

import (
	"log/slog"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/getmockd/wsgate/pkg/broker"
	"github.com/getmockd/wsgate/pkg/config"
	"github.com/getmockd/wsgate/pkg/logging"
)

// Options returns the fx options of the gateway application.
func Options(cfg *config.Config, log *slog.Logger) fx.Option {
	if log == nil {
		log = logging.Nop()
	}
	return fx.Options(
		fx.Supply(cfg, log),
		fx.WithLogger(func() fxevent.Logger {
			l := &fxevent.SlogLogger{Logger: logging.Component(log, "fx")}
			l.UseLogLevel(slog.LevelDebug)
			return l
		}),
		fx.Provide(
			newRegistry,
			newMetrics,
			broker.NewConnectionManager,
			newMQTTBroker,
			newAcceptor,
			newDispatcher,
			newServer,
		),
		fx.Invoke(func(*Server) {}),
	)
}

// New creates the gateway application.
func New(cfg *config.Config, log *slog.Logger, opts ...fx.Option) *fx.App {
	return fx.New(append([]fx.Option{Options(cfg, log)}, opts...)...)
}
