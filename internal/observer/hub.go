// Package observer streams boss transitions to websocket clients and exposes
// a small admin HTTP surface.
package observer

import (
	"encoding/json"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/udisondev/bossai/internal/ai"
	"github.com/udisondev/bossai/internal/raid"
)

// Message types sent over the websocket.
const (
	TypeSnapshot   = "SNAPSHOT"
	TypeTransition = "TRANSITION"
)

// SnapshotMsg is the first message on every connection.
type SnapshotMsg struct {
	Type   string       `json:"type"`
	Bosses []raid.Entry `json:"bosses"`
}

// TransitionMsg carries one transition.
type TransitionMsg struct {
	Type  string             `json:"type"`
	Event ai.TransitionEvent `json:"event"`
}

type client struct {
	id   uint64
	send chan []byte
}

// Hub fans transitions out to connected observers. It implements
// ai.TransitionSink; slow clients lose messages instead of stalling the tick.
type Hub struct {
	mu      sync.RWMutex
	clients map[uint64]*client

	nextID  atomic.Uint64
	dropped atomic.Int64
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[uint64]*client)}
}

// join registers a client whose queue already holds initial.
func (h *Hub) join(initial []byte, buffer int) *client {
	c := &client{
		id:   h.nextID.Add(1),
		send: make(chan []byte, buffer),
	}
	c.send <- initial

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	return c
}

func (h *Hub) leave(c *client) {
	h.mu.Lock()
	delete(h.clients, c.id)
	h.mu.Unlock()
}

// OnTransition broadcasts ev to every client.
func (h *Hub) OnTransition(ev ai.TransitionEvent) {
	b, err := json.Marshal(TransitionMsg{Type: TypeTransition, Event: ev})
	if err != nil {
		slog.Error("encoding transition message", "bossID", ev.BossID, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- b:
		default:
			h.dropped.Add(1)
		}
	}
}

// ClientCount returns the number of connected observers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Dropped returns messages lost to full client queues.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
