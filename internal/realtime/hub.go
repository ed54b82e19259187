// Package realtime provides the websocket transport: room membership,
// per-connection pumps, inbound message handling, and the coalesced
// broadcast fanout driven by committed score updates.
package realtime

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/rankfeed/rankfeed/internal/metrics"
)

// Hub maintains the set of active clients and their room memberships, and
// broadcasts events to rooms on this instance.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Clients by room identity
	rooms map[string]map[*Client]bool

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	log *zap.SugaredLogger

	mu sync.RWMutex
}

// NewHub creates a new Hub instance.
func NewHub(log *zap.SugaredLogger) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		log:        log,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			metrics.ConnectedClients.Inc()
			h.log.Debugw("client registered", "client", client.id)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				h.removeFromRoomsLocked(client)
				client.closeSend()
				metrics.ConnectedClients.Dec()
			}
			h.mu.Unlock()
			h.log.Debugw("client unregistered", "client", client.id)
		}
	}
}

// removeFromRoomsLocked drops a client from every room. Caller holds h.mu.
func (h *Hub) removeFromRoomsLocked(client *Client) {
	for room, members := range h.rooms {
		if members[client] {
			delete(members, client)
			if len(members) == 0 {
				delete(h.rooms, room)
			}
		}
	}
}

// JoinRoom adds a client to a room, creating it on first join.
func (h *Hub) JoinRoom(room string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.rooms[room] == nil {
		h.rooms[room] = make(map[*Client]bool)
	}
	h.rooms[room][client] = true
}

// LeaveRoom removes a client from a room; no-op if it was not a member.
func (h *Hub) LeaveRoom(room string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	members := h.rooms[room]
	if members == nil {
		return
	}
	delete(members, client)
	if len(members) == 0 {
		delete(h.rooms, room)
	}
}

// EmitRoom sends an event to all clients currently in a room.
func (h *Hub) EmitRoom(room, event string, data interface{}) {
	h.mu.RLock()
	members := make([]*Client, 0, len(h.rooms[room]))
	for client := range h.rooms[room] {
		members = append(members, client)
	}
	h.mu.RUnlock()

	if len(members) == 0 {
		return
	}

	frame, err := marshalFrame(event, data)
	if err != nil {
		h.log.Errorw("marshaling room event", "event", event, "error", err)
		return
	}

	for _, client := range members {
		client.enqueue(frame)
	}
}

// EmitAll sends an event to every connected client regardless of rooms.
func (h *Hub) EmitAll(event string, data interface{}) {
	frame, err := marshalFrame(event, data)
	if err != nil {
		h.log.Errorw("marshaling broadcast event", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		client.enqueue(frame)
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// RoomCount returns the number of rooms with at least one member.
func (h *Hub) RoomCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms)
}

// marshalFrame encodes one outbound frame. When data is already serialized
// JSON it is embedded verbatim, so relayed payloads pass through unchanged.
func marshalFrame(event string, data interface{}) ([]byte, error) {
	var raw json.RawMessage
	switch d := data.(type) {
	case json.RawMessage:
		raw = d
	case []byte:
		raw = d
	default:
		b, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = b
	}
	return json.Marshal(Frame{Event: event, Data: raw})
}
