package realtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rankfeed/rankfeed/internal/leaderboard"
)

type panickyEmitter struct {
	fakeEmitter
	panics int
}

func (p *panickyEmitter) EmitAll(event string, data interface{}) {
	p.panics++
	panic("broken transport")
}

func TestRolloverEmitBroadcastsReset(t *testing.T) {
	part, err := leaderboard.NewPartitioner("Asia/Kolkata")
	require.NoError(t, err)

	emitter := &fakeEmitter{}
	n := NewRolloverNotifier(part, emitter, zap.NewNop().Sugar())

	n.emit()
	assert.Equal(t, 1, emitter.count(EventReset))
}

// A failing emission must never escape: the Run loop depends on emit
// returning so it can reschedule the next rollover.
func TestRolloverEmitSurvivesPanic(t *testing.T) {
	part, err := leaderboard.NewPartitioner("Asia/Kolkata")
	require.NoError(t, err)

	emitter := &panickyEmitter{}
	n := NewRolloverNotifier(part, emitter, zap.NewNop().Sugar())

	assert.NotPanics(t, func() { n.emit() })
	assert.Equal(t, 1, emitter.panics)

	// A second firing still attempts delivery.
	assert.NotPanics(t, func() { n.emit() })
	assert.Equal(t, 2, emitter.panics)
}
