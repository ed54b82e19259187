package leaderboard

import (
	"fmt"
	"time"
)

// dateKeyLayout is the compact calendar-date form used in every
// partition-scoped key, e.g. "20251229".
const dateKeyLayout = "20060102"

// Partitioner computes the daily partition key and rollover boundary in a
// fixed time zone. All ranking data written during a partition expires at
// that partition's next local midnight.
type Partitioner struct {
	loc *time.Location
}

// NewPartitioner builds a Partitioner for the named IANA zone.
func NewPartitioner(zone string) (*Partitioner, error) {
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("loading time zone %q: %w", zone, err)
	}
	return &Partitioner{loc: loc}, nil
}

// Zone returns the configured zone name.
func (p *Partitioner) Zone() string {
	return p.loc.String()
}

// DateKey returns the partition identifier for t in the configured zone.
func (p *Partitioner) DateKey(t time.Time) string {
	return t.In(p.loc).Format(dateKeyLayout)
}

// CurrentDateKey returns the partition identifier for the current instant.
func (p *Partitioner) CurrentDateKey() string {
	return p.DateKey(time.Now())
}

// NextRollover returns the next local midnight strictly after t.
func (p *Partitioner) NextRollover(t time.Time) time.Time {
	lt := t.In(p.loc)
	y, mo, d := lt.Date()
	return time.Date(y, mo, d+1, 0, 0, 0, 0, p.loc)
}

// NextRolloverEpoch returns NextRollover as Unix epoch seconds, the form
// consumed by EXPIREAT on every partition-scoped key.
func (p *Partitioner) NextRolloverEpoch(t time.Time) int64 {
	return p.NextRollover(t).Unix()
}
