package leaderboard

import "strings"

// SegmentAll is the wildcard segment aggregating every region or mode.
const SegmentAll = "all"

// SafeSegment normalizes a region or mode identifier: trimmed, lower-cased,
// restricted to [a-z0-9_-]. An empty result yields the fallback. Every read
// and write boundary must pass identifiers through here before composing
// keys, so the same logical segment always addresses the same index.
func SafeSegment(s, fallback string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return fallback
	}
	return b.String()
}

// ClampInt bounds n to [min, max].
func ClampInt(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
