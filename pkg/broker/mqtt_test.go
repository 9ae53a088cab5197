package broker

import (
	"context"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/wsgate/pkg/subprotocol"
)

func startMQTTBroker(t *testing.T, cfg MQTTConfig) *MQTTBroker {
	t.Helper()
	b, err := NewMQTTBroker(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() {
		_ = b.Stop(context.Background(), 5*time.Second)
	})
	return b
}

func TestMQTTBroker_StartStop(t *testing.T) {
	b, err := NewMQTTBroker(MQTTConfig{Listen: "127.0.0.1:0"}, nil)
	require.NoError(t, err)
	assert.False(t, b.IsRunning())
	assert.Zero(t, b.Uptime())

	ctx := context.Background()
	require.NoError(t, b.Start(ctx))
	assert.True(t, b.IsRunning())
	assert.ErrorIs(t, b.Start(ctx), ErrAlreadyRunning)

	require.NoError(t, b.Stop(ctx, 5*time.Second))
	assert.False(t, b.IsRunning())
	require.NoError(t, b.Stop(ctx, 5*time.Second))
}

func TestMQTTBroker_StartCancelled(t *testing.T) {
	b, err := NewMQTTBroker(MQTTConfig{}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, b.Start(ctx), context.Canceled)
	assert.False(t, b.IsRunning())
}

func TestMQTTBroker_OverWebSocket(t *testing.T) {
	b := startMQTTBroker(t, MQTTConfig{})
	a := NewAcceptor(nil, WithHandler(subprotocol.FamilyMQTT, b))
	srv := newGatewayServer(t, a)

	opts := paho.NewClientOptions().
		AddBroker(wsURL(srv)).
		SetClientID("sensor-1").
		SetAutoReconnect(false).
		SetConnectTimeout(5 * time.Second)
	client := paho.NewClient(opts)

	tok := client.Connect()
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())

	assert.Eventually(t, func() bool { return b.ConnectedClients() == 1 }, 5*time.Second, 10*time.Millisecond)
	assert.Equal(t, 1, a.Manager().CountByFamily(subprotocol.FamilyMQTT))

	received := make(chan string, 2)
	tok = client.Subscribe("sensors/#", 1, func(_ paho.Client, m paho.Message) {
		received <- m.Topic() + "=" + string(m.Payload())
	})
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())

	tok = client.Publish("sensors/t1", 1, false, "21.5")
	require.True(t, tok.WaitTimeout(5*time.Second))
	require.NoError(t, tok.Error())

	select {
	case msg := <-received:
		assert.Equal(t, "sensors/t1=21.5", msg)
	case <-time.After(5 * time.Second):
		t.Fatal("message not delivered")
	}

	require.NoError(t, b.server.Publish("sensors/t2", []byte("19.0"), false, 0))
	select {
	case msg := <-received:
		assert.Equal(t, "sensors/t2=19.0", msg)
	case <-time.After(5 * time.Second):
		t.Fatal("inline publish not delivered")
	}

	client.Disconnect(250)
	assert.Eventually(t, func() bool { return a.Manager().Count() == 0 }, 5*time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool { return b.ConnectedClients() == 0 }, 5*time.Second, 10*time.Millisecond)
}
