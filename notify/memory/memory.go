// Package memory provides a Publisher that keeps notifications in memory.
// It backs tests and the dry-run mode of the server.
package memory

import (
	"context"
	"sync"

	"github.com/Taha-mlaiki/TrackTruck/notify"
)

var _ notify.Publisher = (*Publisher)(nil)

// Publisher records every notification it receives.
type Publisher struct {
	mu   sync.Mutex
	sent []*notify.Notification
	err  error
}

// New creates an empty recorder.
func New() *Publisher { return &Publisher{} }

// Publish records n, or returns the injected failure.
func (p *Publisher) Publish(_ context.Context, n *notify.Notification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	c := *n
	p.sent = append(p.sent, &c)
	return nil
}

// FailWith makes every later Publish return err. Pass nil to recover.
func (p *Publisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// Notifications returns a copy of everything published so far.
func (p *Publisher) Notifications() []*notify.Notification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*notify.Notification, len(p.sent))
	copy(out, p.sent)
	return out
}

// Reset forgets every recorded notification.
func (p *Publisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = nil
}
