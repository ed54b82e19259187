package realtime

import "encoding/json"

// Channel event names shared with clients.
const (
	EventServerReady  = "server:ready"
	EventSubscribe    = "leaderboard:subscribe"
	EventUnsubscribe  = "leaderboard:unsubscribe"
	EventScoreUpdated = "leaderboard:scoreUpdated"
	EventTop          = "leaderboard:top"
	EventReset        = "leaderboard:reset"
	EventError        = "error"
)

// Frame is the wire format for every realtime message in both directions.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// SubscribeRequest is the inbound payload of leaderboard:subscribe.
type SubscribeRequest struct {
	Region string `json:"region"`
	Mode   string `json:"mode"`
	Limit  int    `json:"limit"`
}

// ScoreUpdatedEvent is the immediate per-update delta pushed to every
// affected room.
type ScoreUpdatedEvent struct {
	DateKey  string  `json:"dateKey"`
	Region   string  `json:"region"`
	Mode     string  `json:"mode"`
	PlayerID string  `json:"playerId"`
	Score    float64 `json:"score"`
	Rank     *int64  `json:"rank"`
}

// ResetEvent announces a partition rollover; subscribers are expected to
// re-subscribe to obtain the new partition's room.
type ResetEvent struct {
	DateKey  string `json:"dateKey"`
	TimeZone string `json:"timeZone"`
}

// ErrorEvent reports a problem with an inbound frame to one client.
type ErrorEvent struct {
	Message string `json:"message"`
}

// Emitter delivers a named event to a room, or to every connection, on all
// service instances. The hub implements it for the local instance; the
// relay bridge extends delivery across instances.
type Emitter interface {
	EmitRoom(room, event string, data interface{})
	EmitAll(event string, data interface{})
}
