package broker

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"sync"
	"time"

	mqtt "github.com/mochi-mqtt/server/v2"
	"github.com/mochi-mqtt/server/v2/hooks/auth"
	"github.com/mochi-mqtt/server/v2/listeners"

	"github.com/getmockd/wsgate/pkg/logging"
	"github.com/getmockd/wsgate/pkg/transport"
)

// WebSocketListenerID is the mochi listener name MQTT transports are
// attached under.
const WebSocketListenerID = "ws"

// MQTTConfig configures the embedded MQTT broker.
type MQTTConfig struct {
	// Listen is an optional address for a plain TCP MQTT listener.
	Listen string
}

// MQTTBroker is an embedded MQTT broker serving MQTT transports.
type MQTTBroker struct {
	config    MQTTConfig
	server    *mqtt.Server
	hook      *ConnectionHook
	log       *slog.Logger
	mu        sync.RWMutex
	running   bool
	startedAt time.Time
}

// Interface compliance check.
var _ TransportHandler = (*MQTTBroker)(nil)

// NewMQTTBroker creates an embedded MQTT broker.
func NewMQTTBroker(cfg MQTTConfig, log *slog.Logger) (*MQTTBroker, error) {
	if log == nil {
		log = logging.Nop()
	}

	server := mqtt.New(&mqtt.Options{
		InlineClient: true,
		Logger:       log,
	})

	// mochi-mqtt requires an auth hook - use AllowHook to allow all connections
	if err := server.AddHook(new(auth.AllowHook), nil); err != nil {
		return nil, fmt.Errorf("failed to add allow hook: %w", err)
	}

	hook := NewConnectionHook(log)
	if err := server.AddHook(hook, nil); err != nil {
		return nil, fmt.Errorf("failed to add connection hook: %w", err)
	}

	return &MQTTBroker{
		config: cfg,
		server: server,
		hook:   hook,
		log:    log,
	}, nil
}

// Start starts the MQTT broker.
// The context can be used for cancellation during startup.
func (b *MQTTBroker) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.running {
		return ErrAlreadyRunning
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if b.config.Listen != "" {
		listener := listeners.NewTCP(listeners.Config{
			ID:      "tcp",
			Address: b.config.Listen,
		})
		if err := b.server.AddListener(listener); err != nil {
			return fmt.Errorf("failed to add listener: %w", err)
		}
	}

	go func() {
		if err := b.server.Serve(); err != nil {
			b.log.Error("MQTT server error", "error", err)
		}
	}()

	b.running = true
	b.startedAt = time.Now()
	return nil
}

// Stop gracefully shuts down the MQTT broker.
// The timeout parameter specifies the maximum time to wait for graceful shutdown.
func (b *MQTTBroker) Stop(ctx context.Context, timeout time.Duration) error {
	b.mu.Lock()
	if !b.running {
		b.mu.Unlock()
		return nil
	}
	b.mu.Unlock()

	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Closing the server disconnects clients, which calls hooks.
	done := make(chan error, 1)
	go func() {
		done <- b.server.Close()
	}()

	var closeErr error
	select {
	case err := <-done:
		closeErr = err
	case <-shutdownCtx.Done():
		closeErr = fmt.Errorf("shutdown timed out: %w", shutdownCtx.Err())
	}

	b.mu.Lock()
	b.running = false
	b.startedAt = time.Time{}
	b.mu.Unlock()

	if closeErr != nil {
		return fmt.Errorf("failed to close server: %w", closeErr)
	}
	return nil
}

// IsRunning returns true if broker is running
func (b *MQTTBroker) IsRunning() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.running
}

// Uptime returns how long the broker has been running.
func (b *MQTTBroker) Uptime() time.Duration {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.running {
		return 0
	}
	return time.Since(b.startedAt)
}

// ConnectedClients returns the number of connected MQTT clients.
func (b *MQTTBroker) ConnectedClients() int64 {
	return b.hook.Connected()
}

// ServeTransport attaches t to the broker as an MQTT client connection and
// blocks until the client disconnects.
func (b *MQTTBroker) ServeTransport(_ context.Context, t transport.Transport) error {
	err := b.server.EstablishConnection(WebSocketListenerID, t)
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, transport.ErrClosed) {
		return nil
	}
	return err
}
