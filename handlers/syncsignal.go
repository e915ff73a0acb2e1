// handlers/syncsignal.go

package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"

	"logiclooper/services"
)

// SyncSignalUpgrade gates the websocket upgrade. Runs after the websocket
// auth middleware, so userId is already in Locals.
func SyncSignalUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// SyncSignal holds the socket open and relays sync nudges. The server is
// the only writer; anything the client sends besides pings is ignored.
func SyncSignal(conn *websocket.Conn) {
	userID, _ := conn.Locals("userId").(string)
	if userID == "" {
		conn.Close()
		return
	}

	hub := services.GetSyncSignalHub()
	hub.Register(userID, conn)
	defer func() {
		hub.Unregister(userID, conn)
		conn.Close()
	}()

	log.Printf("🔔 Sync signal connected for user %s (%d sockets)", userID, hub.Connections(userID))

	for {
		// Read loop exists to detect the close handshake.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
