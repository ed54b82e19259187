package leaderboard

import "github.com/redis/go-redis/v9"

// updateScript applies one score event as a single atomic unit: all four
// ranking indexes, the player-meta record, and all four version counters
// commit together, and the player's rank in the primary index is computed
// inside the same execution. Redis runs scripts without interleaving, so
// partial application is never observable and concurrent updates to the
// same player are linearized.
//
// KEYS:
//  1 meta hash
//  2 primary index (region, mode)
//  3 region-only index (region, all)
//  4 mode-only index (all, mode)
//  5 global index (all, all)
//  6-9 version counters matching KEYS[2..5]
//
// ARGV:
//  1 playerId
//  2 meta JSON
//  3 scoreDelta (string number, may be "0")
//  4 scoreSet (string number, or "" when absent)
//  5 expireAt (unix seconds)
//
// Returns {tostring(newScore), tostring(zero-based rank or -1)}.
var updateScript = redis.NewScript(`
local playerId = ARGV[1]
local metaJson = ARGV[2]
local delta = tonumber(ARGV[3]) or 0
local setScoreRaw = ARGV[4]
local expireAt = tonumber(ARGV[5])

local current = redis.call("ZSCORE", KEYS[2], playerId)
local currentNum = 0
if current then
  currentNum = tonumber(current) or 0
end

local newScore = 0
local isSet = false
if setScoreRaw ~= nil and setScoreRaw ~= "" then
  newScore = tonumber(setScoreRaw) or 0
  isSet = true
else
  newScore = currentNum + delta
end

for i = 2, 5 do
  if isSet then
    redis.call("ZADD", KEYS[i], newScore, playerId)
  else
    redis.call("ZINCRBY", KEYS[i], delta, playerId)
  end
  if expireAt and expireAt > 0 then
    redis.call("EXPIREAT", KEYS[i], expireAt)
  end
end

redis.call("HSET", KEYS[1], playerId, metaJson)

for i = 6, 9 do
  redis.call("INCR", KEYS[i])
  if expireAt and expireAt > 0 then
    redis.call("EXPIREAT", KEYS[i], expireAt)
  end
end

local rank = redis.call("ZREVRANK", KEYS[2], playerId)
if not rank then rank = -1 end

return { tostring(newScore), tostring(rank) }
`)
