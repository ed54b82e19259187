package realtime

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/rankfeed/rankfeed/internal/leaderboard"
)

// Handler processes inbound realtime frames.
type Handler struct {
	hub          *Hub
	engine       *leaderboard.Engine
	defaultLimit int
	maxLimit     int
	log          *zap.SugaredLogger
}

// NewHandler creates a new message handler. defaultLimit is used when a
// subscribe request omits a limit; maxLimit caps any requested one.
func NewHandler(hub *Hub, engine *leaderboard.Engine, defaultLimit, maxLimit int, log *zap.SugaredLogger) *Handler {
	return &Handler{
		hub:          hub,
		engine:       engine,
		defaultLimit: defaultLimit,
		maxLimit:     maxLimit,
		log:          log,
	}
}

// HandleMessage processes an incoming frame from one client.
func (h *Handler) HandleMessage(client *Client, data []byte) {
	var frame Frame
	if err := json.Unmarshal(data, &frame); err != nil {
		client.sendEvent(EventError, ErrorEvent{Message: "invalid message format"})
		return
	}

	switch frame.Event {
	case EventSubscribe:
		h.handleSubscribe(client, frame.Data)
	case EventUnsubscribe:
		h.handleUnsubscribe(client)
	default:
		client.sendEvent(EventError, ErrorEvent{Message: "unknown event"})
	}
}

// handleSubscribe joins the client to the room for the requested segment in
// the current partition and replies with one immediate snapshot. A client
// listens to at most one room; subscribing again switches rooms.
func (h *Handler) handleSubscribe(client *Client, data json.RawMessage) {
	var req SubscribeRequest
	if len(data) > 0 {
		if err := json.Unmarshal(data, &req); err != nil {
			client.sendEvent(EventError, ErrorEvent{Message: "invalid subscribe payload"})
			return
		}
	}

	dateKey := h.engine.Partitioner().CurrentDateKey()
	region := leaderboard.SafeSegment(req.Region, leaderboard.SegmentAll)
	mode := leaderboard.SafeSegment(req.Mode, leaderboard.SegmentAll)
	// Omitted limit decodes as zero and takes the push default; explicit
	// out-of-range values are clamped, never replaced.
	limit := req.Limit
	if limit == 0 {
		limit = h.defaultLimit
	}
	limit = leaderboard.ClampInt(limit, 1, h.maxLimit)

	room := leaderboard.RoomKey(dateKey, region, mode)
	prev := client.setSubscription(&subscription{
		room:   room,
		region: region,
		mode:   mode,
		limit:  limit,
	})
	if prev != nil && prev.room != room {
		h.hub.LeaveRoom(prev.room, client)
	}
	h.hub.JoinRoom(room, client)

	snap, err := h.engine.TopPlayers(context.Background(), leaderboard.TopQuery{
		Region: region,
		Mode:   mode,
		Limit:  limit,
	})
	if err != nil {
		h.log.Errorw("subscribe snapshot failed", "room", room, "error", err)
		client.sendEvent(EventError, ErrorEvent{Message: "failed to load leaderboard"})
		return
	}
	client.sendEvent(EventTop, snap)
}

// handleUnsubscribe leaves the current room; no-op if never subscribed.
func (h *Handler) handleUnsubscribe(client *Client) {
	prev := client.setSubscription(nil)
	if prev == nil {
		return
	}
	h.hub.LeaveRoom(prev.room, client)
}
