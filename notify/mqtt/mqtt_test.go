package mqtt

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Taha-mlaiki/TrackTruck/notify"
)

type mockToken struct {
	done chan struct{}
	err  error
}

func completedToken(err error) *mockToken {
	t := &mockToken{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

func (t *mockToken) Wait() bool { return true }
func (t *mockToken) WaitTimeout(time.Duration) bool { return true }
func (t *mockToken) Done() <-chan struct{} { return t.done }
func (t *mockToken) Error() error { return t.err }

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type mockClient struct {
	token paho.Token
	sent  []published
}

func (m *mockClient) Publish(topic string, qos byte, _ bool, payload interface{}) paho.Token {
	m.sent = append(m.sent, published{topic: topic, qos: qos, payload: payload.([]byte)})
	return m.token
}

func TestPublish(t *testing.T) {
	client := &mockClient{token: completedToken(nil)}
	p := New(client, Config{QoS: 1})

	n := notify.New(notify.AudienceAdmins, notify.EventMaintenance, "Maintenance alert: truck AB-1 reached interval 10000km")
	n.Type = "truck"
	n.AssetID = "t1"
	require.NoError(t, p.Publish(context.Background(), n))

	require.Len(t, client.sent, 1)
	assert.Equal(t, "tracktruck/admins/maintenanceNotification", client.sent[0].topic)
	assert.Equal(t, byte(1), client.sent[0].qos)

	var payload map[string]any
	require.NoError(t, json.Unmarshal(client.sent[0].payload, &payload))
	assert.Equal(t, "t1", payload["id"])
}

func TestPublishBrokerError(t *testing.T) {
	boom := errors.New("not authorized")
	p := New(&mockClient{token: completedToken(boom)}, Config{})
	err := p.Publish(context.Background(), notify.New(notify.AudienceAdmins, notify.EventSystem, "x"))
	assert.ErrorIs(t, err, boom)
}

func TestPublishTimeout(t *testing.T) {
	pending := &mockToken{done: make(chan struct{})}
	p := New(&mockClient{token: pending}, Config{Timeout: 20 * time.Millisecond})
	err := p.Publish(context.Background(), notify.New(notify.AudienceAdmins, notify.EventSystem, "x"))
	assert.ErrorIs(t, err, ErrPublishTimeout)
}

func TestPublishCancelled(t *testing.T) {
	pending := &mockToken{done: make(chan struct{})}
	p := New(&mockClient{token: pending}, Config{Timeout: time.Minute})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.Publish(ctx, notify.New(notify.AudienceAdmins, notify.EventSystem, "x"))
	assert.ErrorIs(t, err, context.Canceled)
}
