package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/yanqian/clearday/internal/domain/briefing"
)

// MQTTOptions configures the broker connection.
type MQTTOptions struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	QoS         byte
	Timeout     time.Duration
}

// publisher is the slice of mqtt.Client the notifier needs.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTNotifier publishes briefings as JSON to <prefix>/<userID>/briefing.
type MQTTNotifier struct {
	client  publisher
	prefix  string
	qos     byte
	timeout time.Duration
	logger  *slog.Logger
	close   func()
}

// NewMQTTNotifier connects to the broker.
func NewMQTTNotifier(opts MQTTOptions, logger *slog.Logger) (*MQTTNotifier, error) {
	logger = logger.With("component", "notify.mqtt")

	co := mqtt.NewClientOptions()
	co.AddBroker(opts.Broker)
	co.SetClientID(opts.ClientID)
	if opts.Username != "" && opts.Password != "" {
		co.SetUsername(opts.Username)
		co.SetPassword(opts.Password)
	}
	co.SetAutoReconnect(true)
	co.OnConnect = func(c mqtt.Client) {
		reader := c.OptionsReader()
		logger.Info("connected to mqtt", "servers", fmt.Sprint(reader.Servers()))
	}
	co.OnConnectionLost = func(_ mqtt.Client, err error) {
		logger.Error("mqtt connection lost", "error", err)
	}

	client := mqtt.NewClient(co)
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	token := client.Connect()
	if !token.WaitTimeout(timeout) {
		return nil, fmt.Errorf("connect mqtt %s: timed out after %s", opts.Broker, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("connect mqtt %s: %w", opts.Broker, err)
	}

	n := newMQTTNotifier(client, opts.TopicPrefix, opts.QoS, timeout, logger)
	n.close = func() { client.Disconnect(250) }
	return n, nil
}

func newMQTTNotifier(client publisher, prefix string, qos byte, timeout time.Duration, logger *slog.Logger) *MQTTNotifier {
	prefix = strings.Trim(strings.TrimSpace(prefix), "/")
	if prefix == "" {
		prefix = "clearday"
	}
	return &MQTTNotifier{client: client, prefix: prefix, qos: qos, timeout: timeout, logger: logger}
}

// Notify publishes msg and waits for the broker to acknowledge it.
func (n *MQTTNotifier) Notify(ctx context.Context, msg briefing.Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode briefing: %w", err)
	}
	topic := n.Topic(msg.UserID)
	token := n.client.Publish(topic, n.qos, false, payload)

	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(n.timeout):
		return fmt.Errorf("publish %s: timed out", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	n.logger.Debug("briefing published", "topic", topic, "id", msg.ID)
	return nil
}

// Topic is where a user's briefings are published.
func (n *MQTTNotifier) Topic(userID string) string {
	return fmt.Sprintf("%s/%s/briefing", n.prefix, userID)
}

// Close disconnects from the broker.
func (n *MQTTNotifier) Close() {
	if n.close != nil {
		n.close()
	}
}

var _ briefing.Notifier = (*MQTTNotifier)(nil)
