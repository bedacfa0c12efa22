// Package client talks to the relay over WebSocket.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/BioHazard786/syncwatch/internal/dns"
	"github.com/BioHazard786/syncwatch/internal/protocol"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20
	queueSize      = 64
)

// Client manages the WebSocket connection to the relay.
type Client struct {
	conn      *websocket.Conn
	serverURL string
	log       *slog.Logger

	incoming chan *protocol.Message
	outgoing chan *protocol.Message

	done      chan struct{}
	closeOnce sync.Once
}

// NewClient creates a new relay client
func NewClient(serverURL string) *Client {
	return &Client{
		serverURL: serverURL,
		log:       slog.Default().With("component", "client"),
		incoming:  make(chan *protocol.Message, queueSize),
		outgoing:  make(chan *protocol.Message, queueSize),
		done:      make(chan struct{}),
	}
}

// Connect establishes the WebSocket connection and starts the pumps.
func (c *Client) Connect(ctx context.Context) error {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return WrapError("connect", err, "invalid server URL")
	}

	dialer := websocket.Dialer{
		NetDialContext:   dns.DialContext,
		HandshakeTimeout: 15 * time.Second,
	}

	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return NewError("connect", err)
	}
	c.conn = conn

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	c.log.Debug("connected", "url", u.String())

	go c.readPump()
	go c.writePump()

	return nil
}

// readPump reads messages from the WebSocket connection.
func (c *Client) readPump() {
	defer func() {
		c.conn.Close()
		close(c.incoming)
	}()

	c.conn.SetReadDeadline(time.Now().Add(pongWait))

	for {
		var msg protocol.Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			c.log.Debug("read stopped", "err", err)
			return
		}

		select {
		case c.incoming <- &msg:
		case <-c.done:
			return
		}
	}
}

// writePump writes messages to the WebSocket connection and sends periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg := <-c.outgoing:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteJSON(msg); err != nil {
				c.log.Debug("write failed", "event", msg.Event, "err", err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.done:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			c.conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// Send queues an event for the relay.
func (c *Client) Send(event string, payload any) error {
	msg, err := protocol.NewMessage(event, payload)
	if err != nil {
		return NewError(fmt.Sprintf("encode %s", event), err)
	}

	select {
	case <-c.done:
		return NewError(fmt.Sprintf("send %s", event), ErrClosed)
	default:
	}

	select {
	case c.outgoing <- msg:
		return nil
	case <-c.done:
		return NewError(fmt.Sprintf("send %s", event), ErrClosed)
	}
}

// Incoming returns the channel for receiving messages. It is closed when the
// connection ends.
func (c *Client) Incoming() <-chan *protocol.Message {
	return c.incoming
}

// Close closes the WebSocket connection. Safe to call more than once.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.done)
	})
}
