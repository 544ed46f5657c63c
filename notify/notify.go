// Package notify defines the notification fan-out used to tell fleet admins
// about due maintenance. A Publisher delivers a Notification to every
// subscriber of an audience. Delivery is fire-and-forget: there is no
// acknowledgement channel back to the caller.
//
// Transports live in sub-packages: hub (websocket rooms), redis, nats, mqtt
// and kafka. Multi fans one notification out to several of them.
package notify

import (
	"context"
	"errors"
	"time"

	"github.com/Taha-mlaiki/TrackTruck/id"
)

// AudienceAdmins is the room every admin dashboard joins.
const AudienceAdmins = "admins"

// Event names, as emitted to websocket clients.
const (
	EventMaintenance = "maintenanceNotification"
	EventTrip        = "tripNotification"
	EventSystem      = "systemNotification"
)

// Notification is one message to an audience.
type Notification struct {
	ID        string    `json:"notificationId"`
	Event     string    `json:"event"`
	Audience  string    `json:"audience"`
	Message   string    `json:"message"`
	Type      string    `json:"type,omitempty"`
	AssetID   string    `json:"id,omitempty"`
	RuleID    string    `json:"ruleId,omitempty"`
	Trigger   string    `json:"trigger,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	// Data carries extra payload fields. Named fields above win on conflict.
	Data map[string]any `json:"-"`
}

// New builds a notification for audience with a fresh ID and timestamp.
func New(audience, event, message string) *Notification {
	return &Notification{
		ID:        id.NewNotificationID().String(),
		Event:     event,
		Audience:  audience,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
}

// Payload returns the body subscribers receive: the extra Data fields plus
// message, type, id, ruleId, trigger and timestamp.
func (n *Notification) Payload() map[string]any {
	p := make(map[string]any, len(n.Data)+6)
	for k, v := range n.Data {
		p[k] = v
	}
	p["message"] = n.Message
	if n.Type != "" {
		p["type"] = n.Type
	}
	if n.AssetID != "" {
		p["id"] = n.AssetID
	}
	if n.RuleID != "" {
		p["ruleId"] = n.RuleID
	}
	if n.Trigger != "" {
		p["trigger"] = n.Trigger
	}
	if n.ID != "" {
		p["notificationId"] = n.ID
	}
	p["timestamp"] = n.Timestamp.Format(time.RFC3339Nano)
	return p
}

// Publisher delivers notifications to an audience.
type Publisher interface {
	Publish(ctx context.Context, n *Notification) error
}

// Func adapts a function to Publisher.
type Func func(ctx context.Context, n *Notification) error

// Publish calls f.
func (f Func) Publish(ctx context.Context, n *Notification) error { return f(ctx, n) }

// Closer is implemented by transports that hold a connection.
type Closer interface {
	Close() error
}

// Multi publishes every notification to all of its publishers.
type Multi struct {
	pubs []Publisher
}

// NewMulti returns a Multi over the non-nil publishers.
func NewMulti(pubs ...Publisher) *Multi {
	m := &Multi{}
	for _, p := range pubs {
		if p != nil {
			m.pubs = append(m.pubs, p)
		}
	}
	return m
}

// Add appends a publisher.
func (m *Multi) Add(p Publisher) {
	if p != nil {
		m.pubs = append(m.pubs, p)
	}
}

// Len returns the number of publishers.
func (m *Multi) Len() int { return len(m.pubs) }

// Publish delivers n to every publisher, even when some fail, and joins the
// errors.
func (m *Multi) Publish(ctx context.Context, n *Notification) error {
	var errs []error
	for _, p := range m.pubs {
		if err := p.Publish(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close closes every publisher that implements Closer.
func (m *Multi) Close() error {
	var errs []error
	for _, p := range m.pubs {
		if c, ok := p.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
