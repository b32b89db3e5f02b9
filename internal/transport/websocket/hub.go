// Package websocket streams every snapshot to connected live-view clients.
package websocket

import (
	"context"
	"encoding/json"

	"mqtt-monitor/internal/domain"
	"mqtt-monitor/internal/logger"
	"mqtt-monitor/internal/storage/snapshot"
)

const broadcastBuffer = 16

type Hub struct {
	clients map[*Client]bool
	latest  *snapshot.Latest

	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	done       chan struct{}

	log logger.Logger
}

func NewHub(latest *snapshot.Latest, log logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		latest:  latest,

		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, broadcastBuffer),
		done:       make(chan struct{}),

		log: log.With("component", "live-view"),
	}
}

// Run serves the hub until ctx ends, then disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			return

		case client := <-h.register:
			h.clients[client] = true
			h.log.Debug("client registered", "total_clients", len(h.clients))

			if snap := h.latest.Get(); snap != nil {
				if msg, err := json.Marshal(snap); err == nil {
					h.deliver(client, msg)
				}
			}

		case client := <-h.unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				h.log.Debug("client unregistered", "total_clients", len(h.clients))
			}

		case msg := <-h.broadcast:
			for client := range h.clients {
				h.deliver(client, msg)
			}
		}
	}
}

// deliver drops clients that cannot keep up.
func (h *Hub) deliver(client *Client, msg []byte) {
	select {
	case client.send <- msg:
	default:
		h.log.Warn("client send buffer full, dropping client")
		delete(h.clients, client)
		close(client.send)
	}
}

// Broadcast queues snap for every client. It never blocks; when the hub
// falls behind the snapshot is skipped.
func (h *Hub) Broadcast(snap *domain.Snapshot) {
	msg, err := json.Marshal(snap)
	if err != nil {
		h.log.Error("failed to marshal snapshot", "error", err)
		return
	}

	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn("broadcast queue full, snapshot skipped")
	}
}

func (h *Hub) join(c *Client) bool {
	select {
	case h.register <- c:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) leave(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}
