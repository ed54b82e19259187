package leaderboard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The key surface is shared with deployed stores; these literals must never
// change shape.
func TestKeyFormats(t *testing.T) {
	assert.Equal(t, "lb:20251229:r:eu:m:ranked", IndexKey("20251229", "eu", "ranked"))
	assert.Equal(t, "lb:ver:20251229:r:eu:m:ranked", VersionKey("20251229", "eu", "ranked"))
	assert.Equal(t, "cache:top:20251229:r:eu:m:ranked:n:10:v:7", CacheTopKey("20251229", "eu", "ranked", 10, "7"))
	assert.Equal(t, "room:20251229:r:eu:m:ranked", RoomKey("20251229", "eu", "ranked"))
	assert.Equal(t, "players:meta", MetaHashKey)
}

func TestKeysNormalizeSegments(t *testing.T) {
	assert.Equal(t, IndexKey("20251229", "eu", "ranked"), IndexKey("20251229", "EU!", "Ranked"))
	assert.Equal(t, VersionKey("20251229", "all", "all"), VersionKey("20251229", "", ""))
	assert.Equal(t, RoomKey("20251229", "all", "solo"), RoomKey("20251229", "   ", "SOLO"))
}

func TestKeysAreInjective(t *testing.T) {
	keys := map[string]bool{}
	for _, dk := range []string{"20251228", "20251229"} {
		for _, r := range []string{"all", "eu", "in"} {
			for _, m := range []string{"all", "solo", "ranked"} {
				for _, k := range []string{
					IndexKey(dk, r, m),
					VersionKey(dk, r, m),
					CacheTopKey(dk, r, m, 10, "0"),
					CacheTopKey(dk, r, m, 100, "0"),
					RoomKey(dk, r, m),
				} {
					assert.Falsef(t, keys[k], "key collision: %s", k)
					keys[k] = true
				}
			}
		}
	}
}
