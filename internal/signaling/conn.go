package signaling

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/BioHazard786/syncwatch/internal/protocol"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. Chunks arrive base64 encoded
	// inside JSON, so this is well above the SDP-sized limit a pure
	// signaling server would need.
	maxMessageSize = 1 << 20
)

// Conn is one participant's WebSocket connection.
type Conn struct {
	// ID is the connection identifier handed out to other participants.
	ID string

	hub *Hub
	ws  *websocket.Conn
	log *slog.Logger

	// send is drained by WritePump. Guarded by mu so a late broadcast never
	// writes to a closed channel.
	mu     sync.Mutex
	send   chan *protocol.Message
	closed bool
}

// NewConn wraps an upgraded WebSocket.
func NewConn(hub *Hub, ws *websocket.Conn) *Conn {
	id := uuid.NewString()
	c := &Conn{
		ID:   id,
		hub:  hub,
		ws:   ws,
		send: make(chan *protocol.Message, hub.opts.SendQueue),
		log:  hub.log.With("conn", id),
	}
	if ws != nil {
		c.log = c.log.With("remote", ws.RemoteAddr().String())
	}
	return c
}

// Send queues a message without blocking. It reports whether the message
// was queued; a full queue or a closed connection drops it.
func (c *Conn) Send(msg *protocol.Message) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.send <- msg:
		return true
	default:
		c.log.Warn("send queue full, dropping message", "event", msg.Event)
		return false
	}
}

// close stops WritePump. Safe to call more than once.
func (c *Conn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

// ReadPump pumps messages from the websocket connection to the hub.
//
// The application runs ReadPump in a per-connection goroutine. The application
// ensures that there is at most one reader on a connection by executing all
// reads from this goroutine. Events are handled in arrival order.
func (c *Conn) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		c.ws.Close()
	}()

	c.ws.SetReadLimit(maxMessageSize)
	c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		c.ws.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn("read failed", "err", err)
			}
			return
		}

		var msg protocol.Message
		if err := json.Unmarshal(data, &msg); err != nil {
			c.hub.reject(c, "", &protocol.ValidationError{Event: "?", Err: protocol.ErrMalformed})
			continue
		}

		c.hub.Handle(c, &msg)
	}
}

// WritePump pumps messages from the hub to the websocket connection.
//
// A goroutine running WritePump is started for each connection. The
// application ensures that there is at most one writer to a connection by
// executing all writes from this goroutine.
func (c *Conn) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.ws.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.ws.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.ws.WriteJSON(msg); err != nil {
				c.log.Warn("write failed", "event", msg.Event, "err", err)
				return
			}

		case <-ticker.C:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
