package ws

import (
	"github.com/gofiber/websocket/v2"
)

// Client is one open tab of a client ID
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	clientID string
	send     chan []byte
}

func (c *Client) ReadPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()

	// inbound messages are ignored, reading only detects the close
	for {
		_, _, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}
