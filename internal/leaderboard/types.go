package leaderboard

// ScoreEvent is one inbound score mutation for a player within a
// (region, mode) segment. Exactly one of ScoreDelta/ScoreSet should be
// supplied; the HTTP layer enforces that, but the engine still behaves
// deterministically on unexpected input (missing values degrade to 0).
type ScoreEvent struct {
	PlayerID   string
	Name       string
	Region     string
	Mode       string
	ScoreDelta *float64
	ScoreSet   *float64
}

// UpdateResult is the committed outcome of one ScoreEvent.
type UpdateResult struct {
	DateKey              string  `json:"dateKey"`
	ExpireAtEpochSeconds int64   `json:"expireAtEpochSeconds"`
	PlayerID             string  `json:"playerId"`
	Region               string  `json:"region"`
	Mode                 string  `json:"mode"`
	Score                float64 `json:"score"`
	Rank                 *int64  `json:"rank"`
}

// TopQuery selects one ranked snapshot. Zero-value Region/Mode mean the
// wildcard segment; a zero Limit means the configured default, and any
// explicit value is clamped to the allowed range.
type TopQuery struct {
	Region string
	Mode   string
	Limit  int
}

// Entry is one ranked row of a snapshot.
type Entry struct {
	Rank     int     `json:"rank"`
	PlayerID string  `json:"playerId"`
	Score    float64 `json:"score"`
	Name     string  `json:"name"`
	Region   *string `json:"region"`
}

// Snapshot is a versioned top-N view of one ranking index. Snapshots are
// cached verbatim; the Version stamp fully determines validity.
type Snapshot struct {
	DateKey string  `json:"dateKey"`
	Region  string  `json:"region"`
	Mode    string  `json:"mode"`
	Limit   int     `json:"limit"`
	Version int64   `json:"version"`
	Players []Entry `json:"players"`
}

// PlayerMeta is the single per-player metadata record, stored as JSON in
// the players:meta hash. It is overwritten on every update and is not
// scoped per mode.
type PlayerMeta struct {
	PlayerID  string `json:"playerId"`
	Name      string `json:"name"`
	Region    string `json:"region"`
	UpdatedAt string `json:"updatedAt"`
}
