// Package redis publishes notifications on Redis pub/sub channels named
// "<prefix>:<audience>:<event>".
package redis

import (
	"context"
	"encoding/json"
	"fmt"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Taha-mlaiki/TrackTruck/notify"
)

// DefaultPrefix is the channel prefix used when none is configured.
const DefaultPrefix = "tracktruck"

var _ notify.Publisher = (*Publisher)(nil)

// Config holds the connection settings.
type Config struct {
	Addr     string `json:"addr" yaml:"addr"`
	Password string `json:"password" yaml:"password"`
	DB       int    `json:"db" yaml:"db"`
	Prefix   string `json:"prefix" yaml:"prefix"`
}

// Publisher sends notifications with PUBLISH.
type Publisher struct {
	client goredis.UniversalClient
	prefix string
	owned  bool
}

// New wraps an existing client. The caller keeps ownership of it.
func New(client goredis.UniversalClient, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Publisher{client: client, prefix: prefix}
}

// Dial connects to the server in cfg and verifies it with PING.
func Dial(ctx context.Context, cfg Config) (*Publisher, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("tracktruck/redis: ping %s: %w", cfg.Addr, err)
	}
	p := New(client, cfg.Prefix)
	p.owned = true
	return p, nil
}

// Channel returns the channel a notification for audience and event goes to.
func (p *Publisher) Channel(audience, event string) string {
	return p.prefix + ":" + audience + ":" + event
}

// Publish sends the JSON payload of n.
func (p *Publisher) Publish(ctx context.Context, n *notify.Notification) error {
	payload, err := json.Marshal(n.Payload())
	if err != nil {
		return fmt.Errorf("tracktruck/redis: marshal: %w", err)
	}
	if err := p.client.Publish(ctx, p.Channel(n.Audience, n.Event), payload).Err(); err != nil {
		return fmt.Errorf("tracktruck/redis: publish: %w", err)
	}
	return nil
}

// Close closes the client if Dial created it.
func (p *Publisher) Close() error {
	if !p.owned {
		return nil
	}
	return p.client.Close()
}
