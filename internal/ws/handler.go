package ws

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// ClientIDLocal is the fiber local holding the resolved client ID
const ClientIDLocal = "client_id"

func Handler(hub *Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		clientID, ok := c.Locals(ClientIDLocal).(string)
		if !ok || clientID == "" {
			_ = c.Close()
			return
		}

		client := &Client{
			hub:      hub,
			conn:     c,
			clientID: clientID,
			send:     make(chan []byte, 256),
		}

		select {
		case hub.register <- client:
		case <-hub.done:
			_ = c.Close()
			return
		}

		go client.WritePump()
		client.ReadPump()
	})
}

func UpgradeMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			c.Locals("allowed", true)
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}
}
