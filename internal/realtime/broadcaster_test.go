package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rankfeed/rankfeed/internal/leaderboard"
)

type emission struct {
	room  string
	event string
}

type fakeEmitter struct {
	mu        sync.Mutex
	emissions []emission
}

func (f *fakeEmitter) EmitRoom(room, event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emissions = append(f.emissions, emission{room: room, event: event})
}

func (f *fakeEmitter) EmitAll(event string, data interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emissions = append(f.emissions, emission{event: event})
}

func (f *fakeEmitter) count(event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.emissions {
		if e.event == event {
			n++
		}
	}
	return n
}

func (f *fakeEmitter) countRoom(room, event string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, e := range f.emissions {
		if e.room == room && e.event == event {
			n++
		}
	}
	return n
}

type fakeSnapshotter struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeSnapshotter) TopPlayers(ctx context.Context, q leaderboard.TopQuery) (*leaderboard.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &leaderboard.Snapshot{Region: q.Region, Mode: q.Mode, Limit: q.Limit}, nil
}

func (f *fakeSnapshotter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testResult(region, mode string) *leaderboard.UpdateResult {
	rank := int64(1)
	return &leaderboard.UpdateResult{
		DateKey:  "20251229",
		Region:   region,
		Mode:     mode,
		PlayerID: "p1",
		Score:    100,
		Rank:     &rank,
	}
}

func TestScoreUpdatedFansOutToFourRooms(t *testing.T) {
	emitter := &fakeEmitter{}
	snaps := &fakeSnapshotter{}
	b := NewBroadcaster(emitter, snaps, 20*time.Millisecond, 10, zap.NewNop().Sugar())
	defer b.Close()

	b.ScoreUpdated(testResult("eu", "ranked"))

	for _, room := range []string{
		"room:20251229:r:eu:m:ranked",
		"room:20251229:r:eu:m:all",
		"room:20251229:r:all:m:ranked",
		"room:20251229:r:all:m:all",
	} {
		assert.Equal(t, 1, emitter.countRoom(room, EventScoreUpdated), "room %s", room)
	}
	assert.Equal(t, 4, b.PendingCount())
}

func TestCoalescingManyUpdatesOneRefresh(t *testing.T) {
	emitter := &fakeEmitter{}
	snaps := &fakeSnapshotter{}
	b := NewBroadcaster(emitter, snaps, 50*time.Millisecond, 10, zap.NewNop().Sugar())
	defer b.Close()

	for i := 0; i < 10; i++ {
		b.ScoreUpdated(testResult("eu", "ranked"))
	}

	// Every update produced its own immediate delta on each of the 4 rooms.
	assert.Equal(t, 40, emitter.count(EventScoreUpdated))
	// But only one refresh is pending per room.
	assert.Equal(t, 4, b.PendingCount())

	require.Eventually(t, func() bool {
		return emitter.count(EventTop) == 4
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, 0, b.PendingCount())
	assert.Equal(t, 4, snaps.callCount())
}

func TestRefreshFailureDoesNotDisableScheduling(t *testing.T) {
	emitter := &fakeEmitter{}
	snaps := &fakeSnapshotter{err: errors.New("store down")}
	b := NewBroadcaster(emitter, snaps, 10*time.Millisecond, 10, zap.NewNop().Sugar())
	defer b.Close()

	b.ScoreUpdated(testResult("eu", "ranked"))
	require.Eventually(t, func() bool {
		return b.PendingCount() == 0
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, emitter.count(EventTop))

	// Scheduling still works once the store recovers.
	snaps.mu.Lock()
	snaps.err = nil
	snaps.mu.Unlock()

	b.ScoreUpdated(testResult("eu", "ranked"))
	require.Eventually(t, func() bool {
		return emitter.count(EventTop) == 4
	}, time.Second, 5*time.Millisecond)
}

func TestCloseCancelsPendingRefreshes(t *testing.T) {
	emitter := &fakeEmitter{}
	snaps := &fakeSnapshotter{}
	b := NewBroadcaster(emitter, snaps, 50*time.Millisecond, 10, zap.NewNop().Sugar())

	b.ScoreUpdated(testResult("eu", "ranked"))
	require.Equal(t, 4, b.PendingCount())

	b.Close()
	assert.Equal(t, 0, b.PendingCount())

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, 0, emitter.count(EventTop))

	// New schedules are rejected after Close.
	b.ScoreUpdated(testResult("eu", "ranked"))
	assert.Equal(t, 0, b.PendingCount())
}
