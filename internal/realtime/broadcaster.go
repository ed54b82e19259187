package realtime

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rankfeed/rankfeed/internal/leaderboard"
	"github.com/rankfeed/rankfeed/internal/metrics"
)

// snapshotter is the slice of the engine the broadcaster needs.
type snapshotter interface {
	TopPlayers(ctx context.Context, q leaderboard.TopQuery) (*leaderboard.Snapshot, error)
}

// Broadcaster fans a committed update out to the four affected rooms: an
// immediate delta event per update, plus at most one debounced full top-N
// refresh per room within the coalescing window, no matter how many
// updates arrive in the interim.
type Broadcaster struct {
	emitter  Emitter
	engine   snapshotter
	window   time.Duration
	pushTopN int
	log      *zap.SugaredLogger

	mu      sync.Mutex
	pending map[string]*time.Timer
	closed  bool
}

// NewBroadcaster creates a broadcaster delivering through emitter. window
// is the per-room debounce interval; pushTopN the refresh snapshot size.
func NewBroadcaster(emitter Emitter, engine snapshotter, window time.Duration, pushTopN int, log *zap.SugaredLogger) *Broadcaster {
	return &Broadcaster{
		emitter:  emitter,
		engine:   engine,
		window:   window,
		pushTopN: pushTopN,
		log:      log,
		pending:  make(map[string]*time.Timer),
	}
}

// ScoreUpdated fans one committed update out to the exact segment room and
// the three aggregate rooms.
func (b *Broadcaster) ScoreUpdated(res *leaderboard.UpdateResult) {
	evt := ScoreUpdatedEvent{
		DateKey:  res.DateKey,
		Region:   res.Region,
		Mode:     res.Mode,
		PlayerID: res.PlayerID,
		Score:    res.Score,
		Rank:     res.Rank,
	}

	all := leaderboard.SegmentAll
	targets := [4][2]string{
		{res.Region, res.Mode},
		{res.Region, all},
		{all, res.Mode},
		{all, all},
	}

	for _, t := range targets {
		region, mode := t[0], t[1]
		room := leaderboard.RoomKey(res.DateKey, region, mode)
		b.emitter.EmitRoom(room, EventScoreUpdated, evt)
		metrics.DeltaEventsSent.Inc()
		b.scheduleRefresh(room, region, mode)
	}
}

// scheduleRefresh arms a debounced full refresh for a room unless one is
// already pending.
func (b *Broadcaster) scheduleRefresh(room, region, mode string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	if _, ok := b.pending[room]; ok {
		metrics.RefreshesCoalesced.Inc()
		return
	}
	b.pending[room] = time.AfterFunc(b.window, func() {
		b.refresh(room, region, mode)
	})
	metrics.RefreshesScheduled.Inc()
}

// refresh recomputes and pushes the room's snapshot. The pending entry is
// cleared before any work so an update arriving during execution schedules
// a fresh refresh. Failures are logged, never propagated.
func (b *Broadcaster) refresh(room, region, mode string) {
	b.mu.Lock()
	delete(b.pending, room)
	b.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			b.log.Errorw("room refresh panicked", "room", room, "panic", r)
		}
	}()

	snap, err := b.engine.TopPlayers(context.Background(), leaderboard.TopQuery{
		Region: region,
		Mode:   mode,
		Limit:  b.pushTopN,
	})
	if err != nil {
		b.log.Errorw("room refresh failed", "room", room, "error", err)
		return
	}
	b.emitter.EmitRoom(room, EventTop, snap)
}

// Close cancels all pending refreshes and rejects new ones.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.closed = true
	for room, timer := range b.pending {
		timer.Stop()
		delete(b.pending, room)
	}
}

// PendingCount reports how many rooms currently have a refresh scheduled.
func (b *Broadcaster) PendingCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}
