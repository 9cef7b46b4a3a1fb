// Package mqtt wraps the paho connection manager for watcher
// subscriptions: one connection per watcher, subscribing on every
// (re-)connect, delivering raw (topic, payload) pairs to a handler.
package mqtt

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/google/uuid"

	"github.com/nugget/mqttwatch/internal/config"
)

// MessageHandler is called for each MQTT message received on the
// subscribed topic. Implementations must be safe for concurrent use.
type MessageHandler func(topic string, payload []byte)

// reconnectDelay is the fixed backoff between connection attempts.
// No cap, no jitter.
const reconnectDelay = 2500 * time.Millisecond

// Conn is one broker connection bound to one topic subscription.
type Conn struct {
	name   string
	topic  string
	logger *slog.Logger
	cm     *autopaho.ConnectionManager
}

// BrokerURL builds the broker URL from config. Credentials travel in
// the CONNECT packet, not the URL.
func BrokerURL(cfg config.MQTTConfig) string {
	return fmt.Sprintf("mqtt://%s:%d", cfg.Host, cfg.Port)
}

// Dial connects to the broker and subscribes to topic, delivering
// messages to handler. The subscription is re-established on every
// reconnect. Dial returns once the connection manager is running;
// the initial connection may still be in progress.
func Dial(ctx context.Context, cfg config.MQTTConfig, name, topic string, handler MessageHandler, logger *slog.Logger) (*Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Conn{
		name:   name,
		topic:  topic,
		logger: logger.With("client", name, "topic", topic),
	}

	brokerURL, err := url.Parse(BrokerURL(cfg))
	if err != nil {
		return nil, fmt.Errorf("parse mqtt broker URL: %w", err)
	}

	pahoCfg := autopaho.ClientConfig{
		ServerUrls:       []*url.URL{brokerURL},
		KeepAlive:        30,
		ConnectUsername:  cfg.Username,
		ConnectPassword:  []byte(cfg.Password),
		ReconnectBackoff: autopaho.NewConstantBackoff(reconnectDelay),
		OnConnectionUp: func(cm *autopaho.ConnectionManager, _ *paho.Connack) {
			c.logger.Info("mqtt connected, subscribing")
			if _, err := cm.Subscribe(ctx, &paho.Subscribe{
				Subscriptions: []paho.SubscribeOptions{
					{Topic: topic, QoS: 0},
				},
			}); err != nil {
				c.logger.Error("mqtt subscribe failed", "error", err)
			}
		},
		OnConnectError: func(err error) {
			c.logger.Warn("mqtt connection error", "error", err)
		},
		ClientConfig: paho.ClientConfig{
			ClientID: "mqttwatch-" + name + "-" + uuid.NewString()[:8],
			OnPublishReceived: []func(paho.PublishReceived) (bool, error){
				func(pr paho.PublishReceived) (bool, error) {
					handler(pr.Packet.Topic, pr.Packet.Payload)
					return true, nil
				},
			},
			OnServerDisconnect: func(d *paho.Disconnect) {
				c.logger.Warn("mqtt server disconnect", "reason_code", d.ReasonCode)
			},
		},
	}

	cm, err := autopaho.NewConnection(ctx, pahoCfg)
	if err != nil {
		return nil, fmt.Errorf("mqtt connect: %w", err)
	}
	c.cm = cm
	return c, nil
}

// AwaitConnection blocks until the broker connection is established or
// ctx expires.
func (c *Conn) AwaitConnection(ctx context.Context) error {
	return c.cm.AwaitConnection(ctx)
}

// Close disconnects from the broker. The context bounds how long to
// wait for a clean DISCONNECT.
func (c *Conn) Close(ctx context.Context) error {
	return c.cm.Disconnect(ctx)
}
