// Package mqtt publishes notifications on MQTT topics named
// "<prefix>/<audience>/<event>".
package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/Taha-mlaiki/TrackTruck/notify"
)

// DefaultPrefix is the topic prefix used when none is configured.
const DefaultPrefix = "tracktruck"

// ErrPublishTimeout is returned when the broker does not acknowledge a
// publish within the configured timeout.
var ErrPublishTimeout = errors.New("tracktruck/mqtt: publish timed out")

var _ notify.Publisher = (*Publisher)(nil)

// Config holds the connection settings.
type Config struct {
	Broker   string        `json:"broker" yaml:"broker"`
	ClientID string        `json:"client_id" yaml:"client_id"`
	Username string        `json:"username" yaml:"username"`
	Password string        `json:"password" yaml:"password"`
	QoS      byte          `json:"qos" yaml:"qos"`
	Retain   bool          `json:"retain" yaml:"retain"`
	Timeout  time.Duration `json:"timeout" yaml:"timeout"`
	Prefix   string        `json:"prefix" yaml:"prefix"`
}

// Client is the part of paho.Client the publisher needs.
type Client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) paho.Token
}

// Publisher sends notifications as MQTT messages.
type Publisher struct {
	client  Client
	owned   paho.Client
	prefix  string
	qos     byte
	retain  bool
	timeout time.Duration
}

// New wraps an existing client. The caller keeps ownership of it.
func New(client Client, cfg Config) *Publisher {
	p := &Publisher{
		client:  client,
		prefix:  cfg.Prefix,
		qos:     cfg.QoS,
		retain:  cfg.Retain,
		timeout: cfg.Timeout,
	}
	if p.prefix == "" {
		p.prefix = DefaultPrefix
	}
	if p.timeout <= 0 {
		p.timeout = 5 * time.Second
	}
	return p
}

// Connect dials cfg.Broker with auto reconnect enabled.
func Connect(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if cfg.Broker == "" {
		return nil, errors.New("tracktruck/mqtt: no broker provided")
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts := paho.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetUsername(cfg.Username).
		SetPassword(cfg.Password).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetMaxReconnectInterval(time.Minute)
	opts.OnConnect = func(paho.Client) {
		logger.Info("mqtt client connected", slog.String("broker", cfg.Broker))
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		logger.Warn("mqtt connection lost", slog.Any("error", err))
	}

	client := paho.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("tracktruck/mqtt: connect: %w", token.Error())
	}
	p := New(client, cfg)
	p.owned = client
	return p, nil
}

// Topic returns the topic a notification for audience and event goes to.
func (p *Publisher) Topic(audience, event string) string {
	return p.prefix + "/" + audience + "/" + event
}

// Publish sends the JSON payload of n and waits for the broker.
func (p *Publisher) Publish(ctx context.Context, n *notify.Notification) error {
	payload, err := json.Marshal(n.Payload())
	if err != nil {
		return fmt.Errorf("tracktruck/mqtt: marshal: %w", err)
	}
	token := p.client.Publish(p.Topic(n.Audience, n.Event), p.qos, p.retain, payload)

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-timer.C:
		return ErrPublishTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("tracktruck/mqtt: publish: %w", err)
	}
	return nil
}

// Close disconnects the client if Connect created it.
func (p *Publisher) Close() error {
	if p.owned != nil {
		p.owned.Disconnect(250)
	}
	return nil
}
