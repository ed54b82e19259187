package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeSegment(t *testing.T) {
	t.Run("lowercases and strips disallowed characters", func(t *testing.T) {
		assert.Equal(t, "eu-west_1", SafeSegment("Eu-West_1!!", "all"))
	})

	t.Run("idempotent with already-normalized input", func(t *testing.T) {
		assert.Equal(t, SafeSegment("eu-west_1", "all"), SafeSegment("Eu-West_1!!", "all"))
	})

	t.Run("empty input yields fallback", func(t *testing.T) {
		assert.Equal(t, "all", SafeSegment("", "all"))
		assert.Equal(t, "unknown", SafeSegment("   ", "unknown"))
	})

	t.Run("fully stripped input yields fallback", func(t *testing.T) {
		assert.Equal(t, "all", SafeSegment("!!!", "all"))
	})

	t.Run("digits underscores hyphens survive", func(t *testing.T) {
		assert.Equal(t, "na_2-b", SafeSegment("NA_2-b", "all"))
	})
}

func TestClampInt(t *testing.T) {
	assert.Equal(t, 1, ClampInt(-5, 1, 100))
	assert.Equal(t, 100, ClampInt(500, 1, 100))
	assert.Equal(t, 42, ClampInt(42, 1, 100))
}
