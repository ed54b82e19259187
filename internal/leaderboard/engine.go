// Package leaderboard implements the ranking core: the key scheme shared
// with existing deployments, day partitioning, the atomic multi-index
// update protocol, and the versioned top-N snapshot cache.
package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rankfeed/rankfeed/internal/metrics"
)

// Options bound engine behavior; zero fields fall back to the defaults
// documented on each field.
type Options struct {
	// DefaultTopN is used when a query supplies no limit (default 10).
	DefaultTopN int

	// MaxTopN caps any requested limit (default 100).
	MaxTopN int

	// CacheTTL is the snapshot cache lifetime (default 5s).
	CacheTTL time.Duration
}

// Engine owns all reads and writes of the ranking indexes, version
// counters, and player metadata. Every mutation goes through UpdateScore;
// no other code path writes these structures.
type Engine struct {
	rdb         redis.UniversalClient
	part        *Partitioner
	log         *zap.SugaredLogger
	defaultTopN int
	maxTopN     int
	cacheTTL    time.Duration
}

// NewEngine builds an Engine on the given Redis client and partitioner.
func NewEngine(rdb redis.UniversalClient, part *Partitioner, log *zap.SugaredLogger, opts Options) *Engine {
	if opts.DefaultTopN <= 0 {
		opts.DefaultTopN = 10
	}
	if opts.MaxTopN <= 0 {
		opts.MaxTopN = 100
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Second
	}
	return &Engine{
		rdb:         rdb,
		part:        part,
		log:         log,
		defaultTopN: opts.DefaultTopN,
		maxTopN:     opts.MaxTopN,
		cacheTTL:    opts.CacheTTL,
	}
}

// Partitioner exposes the engine's day partitioner for callers that need
// the current date key or rollover instant.
func (e *Engine) Partitioner() *Partitioner {
	return e.part
}

// UpdateScore applies one score event atomically across the primary,
// region-only, mode-only, and global indexes, upserts the player's meta
// record, and bumps all four version counters. The returned rank is
// 1-based within the primary index, nil if the player could not be ranked.
//
// The script runs via EVALSHA with a transparent one-shot EVAL resubmit
// when the server has evicted the cached program, so callers never see a
// NOSCRIPT failure.
func (e *Engine) UpdateScore(ctx context.Context, ev ScoreEvent) (*UpdateResult, error) {
	start := time.Now()

	now := time.Now()
	dateKey := e.part.DateKey(now)
	expireAt := e.part.NextRolloverEpoch(now)

	region := SafeSegment(ev.Region, SegmentAll)
	mode := SafeSegment(ev.Mode, SegmentAll)

	name := ev.Name
	if name == "" {
		name = ev.PlayerID
	}
	meta := PlayerMeta{
		PlayerID:  ev.PlayerID,
		Name:      name,
		Region:    SafeSegment(ev.Region, "unknown"),
		UpdatedAt: now.In(e.part.loc).Format(time.RFC3339),
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshaling player meta: %w", err)
	}

	delta := "0"
	if ev.ScoreDelta != nil {
		delta = strconv.FormatFloat(*ev.ScoreDelta, 'f', -1, 64)
	}
	set := ""
	if ev.ScoreSet != nil {
		set = strconv.FormatFloat(*ev.ScoreSet, 'f', -1, 64)
	}

	keys := []string{
		MetaHashKey,
		IndexKey(dateKey, region, mode),
		IndexKey(dateKey, region, SegmentAll),
		IndexKey(dateKey, SegmentAll, mode),
		IndexKey(dateKey, SegmentAll, SegmentAll),
		VersionKey(dateKey, region, mode),
		VersionKey(dateKey, region, SegmentAll),
		VersionKey(dateKey, SegmentAll, mode),
		VersionKey(dateKey, SegmentAll, SegmentAll),
	}
	args := []interface{}{ev.PlayerID, string(metaJSON), delta, set, expireAt}

	raw, err := updateScript.Run(ctx, e.rdb, keys, args...).Result()
	if err != nil {
		metrics.UpdateErrors.Inc()
		return nil, fmt.Errorf("running score update: %w", err)
	}

	score, rank, err := parseUpdateReply(raw)
	if err != nil {
		metrics.UpdateErrors.Inc()
		return nil, err
	}

	metrics.ScoreUpdates.Inc()
	metrics.UpdateDuration.Observe(time.Since(start).Seconds())

	return &UpdateResult{
		DateKey:              dateKey,
		ExpireAtEpochSeconds: expireAt,
		PlayerID:             ev.PlayerID,
		Region:               region,
		Mode:                 mode,
		Score:                score,
		Rank:                 rank,
	}, nil
}

// parseUpdateReply decodes the {score, zeroBasedRank} pair returned by the
// update script. A rank of -1 maps to nil, everything else to 1-based.
func parseUpdateReply(raw interface{}) (float64, *int64, error) {
	reply, ok := raw.([]interface{})
	if !ok || len(reply) != 2 {
		return 0, nil, fmt.Errorf("unexpected update reply shape: %T", raw)
	}
	scoreStr, ok := reply[0].(string)
	if !ok {
		return 0, nil, fmt.Errorf("unexpected score type in update reply: %T", reply[0])
	}
	rankStr, ok := reply[1].(string)
	if !ok {
		return 0, nil, fmt.Errorf("unexpected rank type in update reply: %T", reply[1])
	}
	score, err := strconv.ParseFloat(scoreStr, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("parsing score %q: %w", scoreStr, err)
	}
	rank0, err := strconv.ParseInt(rankStr, 10, 64)
	if err != nil {
		return 0, nil, fmt.Errorf("parsing rank %q: %w", rankStr, err)
	}
	if rank0 < 0 {
		return score, nil, nil
	}
	rank := rank0 + 1
	return score, &rank, nil
}

// TopPlayers serves the ranked snapshot for one segment. The cache key
// includes the index's current version, so a bumped counter makes the next
// read miss and recompute; stale entries are left to expire on their TTL.
//
// Tie-break: Redis sorted sets order equal scores lexically ascending by
// member, so a descending read yields reverse-lexical order among ties.
func (e *Engine) TopPlayers(ctx context.Context, q TopQuery) (*Snapshot, error) {
	dateKey := e.part.CurrentDateKey()
	region := SafeSegment(q.Region, SegmentAll)
	mode := SafeSegment(q.Mode, SegmentAll)

	// Zero means the caller left the limit unset; anything explicit, even
	// a negative, is clamped rather than replaced.
	limit := q.Limit
	if limit == 0 {
		limit = e.defaultTopN
	}
	limit = ClampInt(limit, 1, e.maxTopN)

	verKey := VersionKey(dateKey, region, mode)
	version, err := e.rdb.Get(ctx, verKey).Result()
	if errors.Is(err, redis.Nil) {
		version = "0"
	} else if err != nil {
		return nil, fmt.Errorf("reading version counter: %w", err)
	}

	cacheKey := CacheTopKey(dateKey, region, mode, limit, version)
	cached, err := e.rdb.Get(ctx, cacheKey).Result()
	if err == nil {
		var snap Snapshot
		if jsonErr := json.Unmarshal([]byte(cached), &snap); jsonErr == nil {
			metrics.TopCacheHits.Inc()
			return &snap, nil
		}
		// Unreadable entry, fall through and recompute.
		e.log.Warnw("discarding unreadable cache entry", "key", cacheKey)
	} else if !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("reading snapshot cache: %w", err)
	}
	metrics.TopCacheMisses.Inc()

	indexKey := IndexKey(dateKey, region, mode)
	rows, err := e.rdb.ZRevRangeWithScores(ctx, indexKey, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("reading ranking index: %w", err)
	}

	players := make([]Entry, 0, len(rows))
	metas := make([]interface{}, 0)
	if len(rows) > 0 {
		ids := make([]string, len(rows))
		for i, z := range rows {
			ids[i] = z.Member.(string)
		}
		metas, err = e.rdb.HMGet(ctx, MetaHashKey, ids...).Result()
		if err != nil {
			return nil, fmt.Errorf("reading player meta: %w", err)
		}
	}

	for i, z := range rows {
		id := z.Member.(string)
		entry := Entry{
			Rank:     i + 1,
			PlayerID: id,
			Score:    z.Score,
			Name:     id,
		}
		if i < len(metas) {
			if s, ok := metas[i].(string); ok {
				var meta PlayerMeta
				if json.Unmarshal([]byte(s), &meta) == nil {
					if meta.Name != "" {
						entry.Name = meta.Name
					}
					if meta.Region != "" {
						r := meta.Region
						entry.Region = &r
					}
				}
			}
		}
		players = append(players, entry)
	}

	ver, _ := strconv.ParseInt(version, 10, 64)
	snap := &Snapshot{
		DateKey: dateKey,
		Region:  region,
		Mode:    mode,
		Limit:   limit,
		Version: ver,
		Players: players,
	}

	payload, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("marshaling snapshot: %w", err)
	}
	if err := e.rdb.SetEx(ctx, cacheKey, payload, e.cacheTTL).Err(); err != nil {
		// The snapshot itself is good; losing the cache write only costs
		// the next reader a recompute.
		e.log.Warnw("caching snapshot failed", "key", cacheKey, "error", err)
	}

	return snap, nil
}
