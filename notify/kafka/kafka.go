// Package kafka publishes notifications to a Kafka topic. Messages are keyed
// by asset id, falling back to the audience, so alerts for one asset stay
// ordered within a partition. The event name travels in the "event" header.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/Taha-mlaiki/TrackTruck/notify"
)

// DefaultTopic is used when Config.Topic is empty.
const DefaultTopic = "tracktruck.notifications"

var _ notify.Publisher = (*Publisher)(nil)

// Config holds the writer settings.
type Config struct {
	Brokers []string `json:"brokers" yaml:"brokers"`
	Topic   string   `json:"topic" yaml:"topic"`
}

// Writer is the part of *kafka.Writer the publisher needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Publisher writes one message per notification.
type Publisher struct {
	w Writer
}

// New wraps a writer. Close closes it.
func New(w Writer) *Publisher { return &Publisher{w: w} }

// NewWriter builds a synchronous writer that waits for all in-sync replicas.
func NewWriter(cfg Config) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("tracktruck/kafka: no brokers provided")
	}
	topic := cfg.Topic
	if topic == "" {
		topic = DefaultTopic
	}
	return New(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
	}), nil
}

// Message converts n into a Kafka message.
func Message(n *notify.Notification) (kafka.Message, error) {
	value, err := json.Marshal(n.Payload())
	if err != nil {
		return kafka.Message{}, fmt.Errorf("tracktruck/kafka: marshal: %w", err)
	}
	key := n.AssetID
	if key == "" {
		key = n.Audience
	}
	return kafka.Message{
		Key:   []byte(key),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event", Value: []byte(n.Event)},
			{Key: "audience", Value: []byte(n.Audience)},
		},
		Time: n.Timestamp,
	}, nil
}

// Publish writes n.
func (p *Publisher) Publish(ctx context.Context, n *notify.Notification) error {
	msg, err := Message(n)
	if err != nil {
		return err
	}
	if err := p.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("tracktruck/kafka: write: %w", err)
	}
	return nil
}

// Close flushes and closes the writer.
func (p *Publisher) Close() error { return p.w.Close() }
