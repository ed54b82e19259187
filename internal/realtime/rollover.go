package realtime

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rankfeed/rankfeed/internal/leaderboard"
)

// minRolloverDelay guards against scheduling in the past around the
// boundary instant itself.
const minRolloverDelay = time.Second

// RolloverNotifier broadcasts leaderboard:reset to every connection at
// each partition rollover and immediately reschedules itself for the next
// local midnight. Emission failures never stop the rescheduling.
type RolloverNotifier struct {
	part    *leaderboard.Partitioner
	emitter Emitter
	log     *zap.SugaredLogger
}

// NewRolloverNotifier builds a notifier for the given partitioner.
func NewRolloverNotifier(part *leaderboard.Partitioner, emitter Emitter, log *zap.SugaredLogger) *RolloverNotifier {
	return &RolloverNotifier{part: part, emitter: emitter, log: log}
}

// Run blocks until ctx is cancelled, firing once per partition rollover.
func (n *RolloverNotifier) Run(ctx context.Context) {
	for {
		delay := time.Until(n.part.NextRollover(time.Now()))
		if delay < minRolloverDelay {
			delay = minRolloverDelay
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			n.emit()
		}
	}
}

// emit sends the reset event. Panics are contained so the Run loop always
// reaches its reschedule.
func (n *RolloverNotifier) emit() {
	defer func() {
		if r := recover(); r != nil {
			n.log.Errorw("rollover broadcast panicked", "panic", r)
		}
	}()

	dateKey := n.part.CurrentDateKey()
	n.emitter.EmitAll(EventReset, ResetEvent{
		DateKey:  dateKey,
		TimeZone: n.part.Zone(),
	})
	n.log.Infow("partition rolled over", "dateKey", dateKey)
}
