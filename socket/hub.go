// Package socket pushes lock and post activity to open admin pages so the
// posts list can show edit locks appearing and clearing without polling.
package socket

import (
	"encoding/json"
	"time"

	"pressroom/pkg/logger"
)

const (
	LockAcquiredType = "LOCK_ACQUIRED" // an editor claimed a post's edit lock
	LockReleasedType = "LOCK_RELEASED" // lock cleared (save, cancel or takeover)
	PostUpdatedType  = "POST_UPDATED"  // post content changed
)

type Event struct {
	Type     string    `json:"type"`
	PostID   int64     `json:"post_id"`
	UserID   int64     `json:"user_id,omitempty"`
	UserName string    `json:"user_name,omitempty"`
	At       time.Time `json:"at"`
}

// Hub fans activity events out to every connected admin client. All state is
// owned by the Run goroutine; other goroutines talk to it through channels.
type Hub struct {
	Broadcast  chan Event
	Register   chan *Client
	Unregister chan *Client

	clients map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		Broadcast:  make(chan Event, 64),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			logger.Sugar.Infof("Activity feed: user %d connected (%d clients)", client.UserID, len(h.clients))

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}

		case evt := <-h.Broadcast:
			payload, err := json.Marshal(evt)
			if err != nil {
				logger.Sugar.Errorf("Error marshalling activity event: %v", err)
				continue
			}
			for client := range h.clients {
				select {
				case client.Send <- payload:
				default:
					// Lagging client; drop it rather than block the hub.
					logger.Sugar.Warnf("Client %d's send buffer is full. Dropping.", client.UserID)
					delete(h.clients, client)
					close(client.Send)
				}
			}
		}
	}
}
