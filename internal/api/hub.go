package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/agents"
	"github.com/gauravrai1704/Agentic-Chaser-ChaseFlow-AI/internal/models"
)

// hubWriteTimeout bounds each WebSocket write; a subscriber that cannot
// keep up is dropped rather than stalling the broadcast.
const hubWriteTimeout = 5 * time.Second

// eventTypeAgentActivity is the envelope type for activity pushes.
const eventTypeAgentActivity = "agent_activity"

// ActivityEvent is the envelope pushed to WebSocket subscribers.
type ActivityEvent struct {
	Type string                `json:"type"`
	Data models.ActivityRecord `json:"data"`
}

var upgrader = websocket.Upgrader{
	// The dashboard is served from a different origin than the API.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub fans agent activity out to connected WebSocket subscribers. It
// implements agents.ActivitySink so it can sit in the fleet's sink fan-out
// next to the store.
type Hub struct {
	mu     sync.Mutex
	conns  map[*websocket.Conn]bool
	closed bool
}

var _ agents.ActivitySink = (*Hub)(nil)

// NewHub creates an empty activity hub.
func NewHub() *Hub {
	return &Hub{conns: make(map[*websocket.Conn]bool)}
}

// RecordActivity broadcasts the record to every subscriber. It never
// returns an error; slow or dead subscribers are dropped instead.
func (h *Hub) RecordActivity(ctx context.Context, rec models.ActivityRecord) error {
	h.BroadcastActivity(rec)
	return nil
}

// BroadcastActivity pushes one activity record to every subscriber.
func (h *Hub) BroadcastActivity(rec models.ActivityRecord) {
	payload, err := json.Marshal(ActivityEvent{Type: eventTypeAgentActivity, Data: rec})
	if err != nil {
		slog.Error("Hub.BroadcastActivity: failed to marshal event", "error", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn := range h.conns {
		conn.SetWriteDeadline(time.Now().Add(hubWriteTimeout))
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			slog.Debug("Hub.BroadcastActivity: dropping subscriber", "error", err)
			conn.Close()
			delete(h.conns, conn)
		}
	}
}

// SubscriberCount reports how many WebSocket subscribers are connected.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// handleWS upgrades the connection and keeps it registered until the peer
// goes away. The read loop only drains control frames; the feed is one-way.
func (h *Hub) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("Hub.handleWS: upgrade failed", "error", err)
		return
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.conns[conn] = true
	h.mu.Unlock()
	slog.Debug("Hub.handleWS: subscriber connected", "remote", conn.RemoteAddr().String())

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	h.mu.Lock()
	delete(h.conns, conn)
	h.mu.Unlock()
	conn.Close()
	slog.Debug("Hub.handleWS: subscriber disconnected")
}

// Close disconnects every subscriber and rejects future ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for conn := range h.conns {
		conn.Close()
		delete(h.conns, conn)
	}
}
