// Package hub is a websocket room hub. Dashboards connect, send
// {"event":"joinAdmins"} or {"event":"joinDriver","data":"<id>"}, and then
// receive {"event":"<name>","data":{...}} frames for every notification
// published to a room they joined.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/Taha-mlaiki/TrackTruck/notify"
)

// Client-to-server events.
const (
	EventJoinAdmins = "joinAdmins"
	EventJoinDriver = "joinDriver"
	EventLeave      = "leave"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxMessage = 4096
)

var _ notify.Publisher = (*Hub)(nil)

// DriverRoom returns the room name for a driver.
func DriverRoom(driverID string) string { return "driver:" + driverID }

// Envelope is the frame exchanged with clients.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// RoomAuthorizer decides whether the connection behind r may join room.
type RoomAuthorizer func(r *http.Request, room string) bool

// Hub tracks connected clients and their rooms.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	rooms   map[string]map[*client]struct{}

	upgrader  websocket.Upgrader
	authorize RoomAuthorizer
	sendBuf   int
	logger    *slog.Logger
	closed    bool
}

// Option configures a Hub.
type Option func(*Hub)

// WithAllowedOrigins restricts the Origin header of upgrade requests. An
// empty list or "*" accepts any origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Hub) {
		allowed := make(map[string]struct{}, len(origins))
		for _, o := range origins {
			if o == "*" {
				h.upgrader.CheckOrigin = func(*http.Request) bool { return true }
				return
			}
			allowed[o] = struct{}{}
		}
		if len(allowed) == 0 {
			return
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			_, ok := allowed[origin]
			return ok
		}
	}
}

// WithRoomAuthorizer sets the join check. By default any client may join any room.
func WithRoomAuthorizer(fn RoomAuthorizer) Option { return func(h *Hub) { h.authorize = fn } }

// WithSendBuffer sets the per-client outbound queue length.
func WithSendBuffer(n int) Option { return func(h *Hub) { h.sendBuf = n } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(h *Hub) { h.logger = l } }

// New creates a Hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[*client]struct{}),
		rooms:   make(map[string]map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		sendBuf: 64,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	c := &client{
		id:   uuid.NewString(),
		hub:  h,
		conn: conn,
		req:  r,
		send: make(chan []byte, h.sendBuf),
	}
	if !h.register(c) {
		_ = conn.Close()
		return
	}
	h.logger.Debug("websocket client connected", slog.String("client", c.id))

	go c.writePump()
	c.readPump()
}

// Publish writes n to every client in n.Audience. Clients whose queue is
// full are disconnected rather than waited on.
func (h *Hub) Publish(_ context.Context, n *notify.Notification) error {
	data, err := json.Marshal(n.Payload())
	if err != nil {
		return fmt.Errorf("tracktruck/hub: marshal payload: %w", err)
	}
	frame, err := json.Marshal(Envelope{Event: n.Event, Data: data})
	if err != nil {
		return fmt.Errorf("tracktruck/hub: marshal frame: %w", err)
	}
	h.Broadcast(n.Audience, frame)
	return nil
}

// Broadcast sends a raw frame to every client in room.
func (h *Hub) Broadcast(room string, frame []byte) {
	// Sends happen under the read lock so unregister cannot close a send
	// channel mid-broadcast.
	var slow []*client
	h.mu.RLock()
	for c := range h.rooms[room] {
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		h.logger.Warn("dropping slow websocket client",
			slog.String("client", c.id),
			slog.String("room", room),
		)
		h.unregister(c)
	}
}

// RoomSize returns the number of clients in room.
func (h *Hub) RoomSize(room string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[room])
}

// Close disconnects every client. Later connections are refused.
func (h *Hub) Close() error {
	h.mu.Lock()
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()
	for _, c := range clients {
		h.unregister(c)
	}
	return nil
}

func (h *Hub) register(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	for room, members := range h.rooms {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
	close(c.send)
}

func (h *Hub) join(c *client, room string) bool {
	if h.authorize != nil && !h.authorize(c.req, room) {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return false
	}
	members, ok := h.rooms[room]
	if !ok {
		members = make(map[*client]struct{})
		h.rooms[room] = members
	}
	members[c] = struct{}{}
	return true
}

func (h *Hub) leave(c *client, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[room]; ok {
		delete(members, c)
		if len(members) == 0 {
			delete(h.rooms, room)
		}
	}
}
