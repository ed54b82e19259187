package leaderboard

import "fmt"

// MetaHashKey is the single hash holding player metadata records. It is not
// partitioned by day; a player has one record regardless of mode.
const MetaHashKey = "players:meta"

// The key surface below is shared with existing deployments and must stay
// byte-compatible. Segments are normalized before composition and cannot
// contain ":", so the fixed "r:"/"m:"/"n:"/"v:" markers keep distinct
// coordinate tuples from ever colliding.

// IndexKey addresses the ranking sorted set for one (partition, region,
// mode) triple.
func IndexKey(dateKey, region, mode string) string {
	r := SafeSegment(region, SegmentAll)
	m := SafeSegment(mode, SegmentAll)
	return fmt.Sprintf("lb:%s:r:%s:m:%s", dateKey, r, m)
}

// VersionKey addresses the cache-invalidation counter paired with one
// ranking index.
func VersionKey(dateKey, region, mode string) string {
	r := SafeSegment(region, SegmentAll)
	m := SafeSegment(mode, SegmentAll)
	return fmt.Sprintf("lb:ver:%s:r:%s:m:%s", dateKey, r, m)
}

// CacheTopKey addresses one cached top-N snapshot. The version dimension
// makes invalidation implicit: bumping the counter orphans old entries.
func CacheTopKey(dateKey, region, mode string, limit int, version string) string {
	r := SafeSegment(region, SegmentAll)
	m := SafeSegment(mode, SegmentAll)
	return fmt.Sprintf("cache:top:%s:r:%s:m:%s:n:%d:v:%s", dateKey, r, m, limit, version)
}

// RoomKey names the realtime room for one (partition, region, mode) triple.
func RoomKey(dateKey, region, mode string) string {
	r := SafeSegment(region, SegmentAll)
	m := SafeSegment(mode, SegmentAll)
	return fmt.Sprintf("room:%s:r:%s:m:%s", dateKey, r, m)
}
