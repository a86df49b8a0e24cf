package server

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	maxMessageSize = 4096
	sendBuffer     = 64
)

// Client is one WebSocket connection. The hub owns playerID and matchID; the
// pumps only touch the connection and the send channel.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	playerID string
	matchID  string
}

// readPump reads envelopes off the connection and hands them to the hub. It
// runs once per connection and unregisters the client on exit.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				c.hub.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			c.hub.logger.Debug("malformed client message", zap.Error(err))
			continue
		}
		c.hub.inbound <- inboundMessage{client: c, msg: msg}
	}
}

// writePump drains the send channel onto the connection. The hub closes the
// send channel to terminate the connection.
func (c *Client) writePump() {
	defer c.conn.Close()

	for message := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// enqueue queues an outbound frame, dropping it if the client's buffer is
// full.
func (c *Client) enqueue(message []byte) {
	select {
	case c.send <- message:
	default:
	}
}
