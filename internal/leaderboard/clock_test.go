package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPartitionerRejectsUnknownZone(t *testing.T) {
	_, err := NewPartitioner("Not/AZone")
	assert.Error(t, err)
}

func TestDateKey(t *testing.T) {
	part, err := NewPartitioner("Asia/Kolkata")
	require.NoError(t, err)

	// 2025-12-29 20:00 UTC is 2025-12-30 01:30 IST.
	at := time.Date(2025, 12, 29, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, "20251230", part.DateKey(at))

	// An instant earlier the same UTC day is still 2025-12-29 in IST.
	before := time.Date(2025, 12, 29, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, "20251229", part.DateKey(before))
}

func TestPartitionChangesAcrossLocalMidnight(t *testing.T) {
	part, err := NewPartitioner("Asia/Kolkata")
	require.NoError(t, err)

	loc, _ := time.LoadLocation("Asia/Kolkata")
	beforeMidnight := time.Date(2025, 12, 29, 23, 59, 59, 0, loc)
	afterMidnight := time.Date(2025, 12, 30, 0, 0, 1, 0, loc)

	assert.NotEqual(t, part.DateKey(beforeMidnight), part.DateKey(afterMidnight))
}

func TestNextRolloverStrictlyFuture(t *testing.T) {
	part, err := NewPartitioner("Asia/Kolkata")
	require.NoError(t, err)

	loc, _ := time.LoadLocation("Asia/Kolkata")
	cases := []time.Time{
		time.Date(2025, 12, 29, 0, 0, 0, 0, loc),
		time.Date(2025, 12, 29, 12, 30, 0, 0, loc),
		time.Date(2025, 12, 29, 23, 59, 59, 0, loc),
		time.Now(),
	}
	for _, at := range cases {
		next := part.NextRollover(at)
		assert.True(t, next.After(at), "rollover %v not after %v", next, at)
		assert.Equal(t, part.DateKey(at.Add(24*time.Hour)), part.DateKey(next))
	}
}

func TestNextRolloverIsLocalMidnight(t *testing.T) {
	part, err := NewPartitioner("Asia/Kolkata")
	require.NoError(t, err)

	loc, _ := time.LoadLocation("Asia/Kolkata")
	at := time.Date(2025, 12, 29, 18, 45, 0, 0, loc)
	next := part.NextRollover(at).In(loc)

	assert.Equal(t, 0, next.Hour())
	assert.Equal(t, 0, next.Minute())
	assert.Equal(t, 0, next.Second())
	assert.Equal(t, 30, next.Day())
	assert.Equal(t, next.Unix(), part.NextRolloverEpoch(at))
}
