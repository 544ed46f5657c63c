package hub

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Taha-mlaiki/TrackTruck/notify"
)

// EventJoined acknowledges a successful join. Data is the room name.
const EventJoined = "joined"

type client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	req  *http.Request
	send chan []byte
}

func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessage)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Envelope
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.hub.logger.Debug("websocket read error",
					slog.String("client", c.id),
					slog.String("error", err.Error()),
				)
			}
			return
		}
		c.handle(msg)
	}
}

func (c *client) handle(msg Envelope) {
	var room string
	switch msg.Event {
	case EventJoinAdmins:
		room = notify.AudienceAdmins
	case EventJoinDriver:
		var driverID string
		if err := json.Unmarshal(msg.Data, &driverID); err != nil || driverID == "" {
			return
		}
		room = DriverRoom(driverID)
	case EventLeave:
		var r string
		if err := json.Unmarshal(msg.Data, &r); err == nil && r != "" {
			c.hub.leave(c, r)
		}
		return
	default:
		return
	}

	if !c.hub.join(c, room) {
		c.hub.logger.Info("websocket room join refused",
			slog.String("client", c.id),
			slog.String("room", room),
		)
		return
	}
	data, _ := json.Marshal(room) //nolint:errcheck // marshalling a string cannot fail
	ack, _ := json.Marshal(Envelope{Event: EventJoined, Data: data}) //nolint:errcheck // as above
	c.hub.mu.RLock()
	defer c.hub.mu.RUnlock()
	if _, ok := c.hub.clients[c]; ok {
		select {
		case c.send <- ack:
		default:
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case frame, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
