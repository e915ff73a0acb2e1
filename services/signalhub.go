package services

import (
	"log"
	"sync"

	"github.com/gofiber/websocket/v2"
)

// SyncSignalHub tracks each user's open signal sockets so the server can
// nudge a user's other devices after one device syncs.
type SyncSignalHub struct {
	mu    sync.Mutex
	conns map[string]map[*websocket.Conn]bool
}

var signalHub *SyncSignalHub

// InitSyncSignalHub initializes the singleton hub.
func InitSyncSignalHub() {
	signalHub = &SyncSignalHub{conns: make(map[string]map[*websocket.Conn]bool)}
}

// GetSyncSignalHub returns the initialized hub.
func GetSyncSignalHub() *SyncSignalHub {
	if signalHub == nil {
		InitSyncSignalHub()
	}
	return signalHub
}

// Register adds a connection for a user.
func (h *SyncSignalHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.conns[userID] == nil {
		h.conns[userID] = make(map[*websocket.Conn]bool)
	}
	h.conns[userID][conn] = true
}

// Unregister removes a connection for a user.
func (h *SyncSignalHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns[userID], conn)
	if len(h.conns[userID]) == 0 {
		delete(h.conns, userID)
	}
}

// Broadcast sends a sync nudge to every connection of the user except the
// one that triggered it. Write failures drop the connection; the client's
// redial loop re-registers it.
func (h *SyncSignalHub) Broadcast(userID string, except *websocket.Conn) {
	h.mu.Lock()
	targets := make([]*websocket.Conn, 0, len(h.conns[userID]))
	for conn := range h.conns[userID] {
		if conn != except {
			targets = append(targets, conn)
		}
	}
	h.mu.Unlock()

	for _, conn := range targets {
		if err := conn.WriteJSON(map[string]string{"type": "sync"}); err != nil {
			log.Printf("Sync signal write failed for user %s: %v", userID, err)
			h.Unregister(userID, conn)
			conn.Close()
		}
	}
}

// Connections reports how many sockets a user currently has open.
func (h *SyncSignalHub) Connections(userID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns[userID])
}
