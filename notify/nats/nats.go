// Package nats publishes notifications on NATS subjects named
// "<prefix>.<audience>.<event>".
package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/Taha-mlaiki/TrackTruck/notify"
)

// DefaultPrefix is the subject prefix used when none is configured.
const DefaultPrefix = "tracktruck"

var _ notify.Publisher = (*Publisher)(nil)

// Config holds the connection settings.
type Config struct {
	URLs     []string `json:"urls" yaml:"urls"`
	ClientID string   `json:"client_id" yaml:"client_id"`
	Username string   `json:"username" yaml:"username"`
	Password string   `json:"password" yaml:"password"`
	Prefix   string   `json:"prefix" yaml:"prefix"`
}

// Conn is the part of *nats.Conn the publisher needs.
type Conn interface {
	Publish(subj string, data []byte) error
}

// Publisher sends notifications as core NATS messages.
type Publisher struct {
	conn   Conn
	nc     *nats.Conn
	prefix string
}

// New wraps an existing connection. The caller keeps ownership of it.
func New(conn Conn, prefix string) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Publisher{conn: conn, prefix: prefix}
}

// Connect dials the first URL in cfg with unlimited reconnects.
func Connect(cfg Config, logger *slog.Logger) (*Publisher, error) {
	if len(cfg.URLs) == 0 {
		return nil, errors.New("tracktruck/nats: no server URLs provided")
	}
	if logger == nil {
		logger = slog.Default()
	}
	opts := []nats.Option{
		nats.Name(cfg.ClientID),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("disconnected from nats", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("reconnected to nats", slog.String("url", c.ConnectedUrl()))
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			logger.Info("nats connection closed")
		}),
	}
	if cfg.Username != "" {
		opts = append(opts, nats.UserInfo(cfg.Username, cfg.Password))
	}

	nc, err := nats.Connect(strings.Join(cfg.URLs, ","), opts...)
	if err != nil {
		return nil, fmt.Errorf("tracktruck/nats: connect: %w", err)
	}
	p := New(nc, cfg.Prefix)
	p.nc = nc
	return p, nil
}

// Subject returns the subject a notification for audience and event goes to.
// Characters NATS treats as tokens or wildcards are replaced in audience.
func (p *Publisher) Subject(audience, event string) string {
	return p.prefix + "." + sanitize(audience) + "." + sanitize(event)
}

// Publish sends the JSON payload of n.
func (p *Publisher) Publish(ctx context.Context, n *notify.Notification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	payload, err := json.Marshal(n.Payload())
	if err != nil {
		return fmt.Errorf("tracktruck/nats: marshal: %w", err)
	}
	if err := p.conn.Publish(p.Subject(n.Audience, n.Event), payload); err != nil {
		return fmt.Errorf("tracktruck/nats: publish: %w", err)
	}
	return nil
}

// Close drains the connection if Connect created it.
func (p *Publisher) Close() error {
	if p.nc == nil {
		return nil
	}
	return p.nc.Drain()
}

var subjectReplacer = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_", ":", "_")

func sanitize(s string) string { return subjectReplacer.Replace(s) }
