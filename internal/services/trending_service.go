/**
 * @description
 * Trending Ranker.
 * Counts normalized search queries and ranks them by (count desc, last searched desc,
 * first seen asc). Increments are atomic per query key; unrelated keys never contend.
 *
 * @dependencies
 * - github.com/redis/go-redis/v9 (RedisCounterStore)
 */

package services

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/groceryscout/backend/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	TrendingCountsKey       = "trending:searches"
	TrendingLastSearchedKey = "trending:last_searched"
	TrendingFirstSeenKey    = "trending:first_seen"
	TrendingSeqKey          = "trending:seq"
)

// counterEntry is the ranking row shared by counter stores
type counterEntry struct {
	query string
	count int64
	last  int64 // unix micro
	seq   int64 // first-seen order
}

// CounterStore is the shared mutable state behind the ranker
type CounterStore interface {
	Increment(ctx context.Context, query string, at time.Time) (models.TrendingCounter, error)
	Top(ctx context.Context, n int) ([]models.TrendingCounter, error)
}

// NormalizeQuery trims and lowercases a search query
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// TrendingService records searches and serves the trending list
type TrendingService struct {
	counters     CounterStore
	defaultLimit int
	now          func() time.Time
}

// NewTrendingService creates a new TrendingService
func NewTrendingService(counters CounterStore, defaultLimit int) *TrendingService {
	if defaultLimit <= 0 {
		defaultLimit = 10
	}
	return &TrendingService{
		counters:     counters,
		defaultLimit: defaultLimit,
		now:          time.Now,
	}
}

// RecordSearch increments the counter of the normalized query
func (s *TrendingService) RecordSearch(ctx context.Context, query string) (models.TrendingCounter, error) {
	normalized := NormalizeQuery(query)
	if normalized == "" {
		return models.TrendingCounter{}, ErrEmptyQuery
	}
	return s.counters.Increment(ctx, normalized, s.now())
}

// TopN returns the n most popular queries; n <= 0 means the configured default.
func (s *TrendingService) TopN(ctx context.Context, n int) ([]models.TrendingCounter, error) {
	if n <= 0 {
		n = s.defaultLimit
	}
	return s.counters.Top(ctx, n)
}

func rankEntries(entries []counterEntry, n int) []models.TrendingCounter {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.count != b.count {
			return a.count > b.count
		}
		if a.last != b.last {
			return a.last > b.last
		}
		return a.seq < b.seq
	})
	if len(entries) > n {
		entries = entries[:n]
	}

	out := make([]models.TrendingCounter, len(entries))
	for i, e := range entries {
		out[i] = models.TrendingCounter{
			Query:        e.query,
			Count:        e.count,
			LastSearched: time.UnixMicro(e.last).UTC(),
		}
	}
	return out
}

// recordSearchScript increments one query atomically.
// KEYS[1] = counts zset, KEYS[2] = last-searched hash, KEYS[3] = first-seen hash, KEYS[4] = seq
// ARGV[1] = normalized query, ARGV[2] = unix micro timestamp
var recordSearchScript = redis.NewScript(`
local count = redis.call("ZINCRBY", KEYS[1], 1, ARGV[1])
local now = tonumber(ARGV[2])
local prev = tonumber(redis.call("HGET", KEYS[2], ARGV[1]) or "0")
if now > prev then
    redis.call("HSET", KEYS[2], ARGV[1], ARGV[2])
else
    now = prev
end
if redis.call("HEXISTS", KEYS[3], ARGV[1]) == 0 then
    local seq = redis.call("INCR", KEYS[4])
    redis.call("HSET", KEYS[3], ARGV[1], seq)
end
return {tonumber(count), now}
`)

// RedisCounterStore keeps counters in a Redis sorted set shared by every API instance
type RedisCounterStore struct {
	redis *redis.Client
}

// NewRedisCounterStore creates a new RedisCounterStore
func NewRedisCounterStore(client *redis.Client) *RedisCounterStore {
	return &RedisCounterStore{redis: client}
}

// Increment implements CounterStore
func (s *RedisCounterStore) Increment(ctx context.Context, query string, at time.Time) (models.TrendingCounter, error) {
	keys := []string{TrendingCountsKey, TrendingLastSearchedKey, TrendingFirstSeenKey, TrendingSeqKey}
	res, err := recordSearchScript.Run(ctx, s.redis, keys, query, at.UnixMicro()).Int64Slice()
	if err != nil {
		return models.TrendingCounter{}, fmt.Errorf("%w: record search: %v", ErrUpstreamUnavailable, err)
	}
	if len(res) != 2 {
		return models.TrendingCounter{}, fmt.Errorf("%w: unexpected script reply", ErrUpstreamUnavailable)
	}
	return models.TrendingCounter{
		Query:        query,
		Count:        res[0],
		LastSearched: time.UnixMicro(res[1]).UTC(),
	}, nil
}

// Top implements CounterStore. It loads every member tied with the n-th score so
// tie-breaks are applied over the full tie group.
func (s *RedisCounterStore) Top(ctx context.Context, n int) ([]models.TrendingCounter, error) {
	head, err := s.redis.ZRevRangeWithScores(ctx, TrendingCountsKey, 0, int64(n-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: trending: %v", ErrUpstreamUnavailable, err)
	}
	if len(head) == 0 {
		return []models.TrendingCounter{}, nil
	}

	threshold := head[len(head)-1].Score
	members, err := s.redis.ZRangeByScoreWithScores(ctx, TrendingCountsKey, &redis.ZRangeBy{
		Min: strconv.FormatFloat(threshold, 'f', -1, 64),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: trending: %v", ErrUpstreamUnavailable, err)
	}

	queries := make([]string, len(members))
	for i, m := range members {
		queries[i] = fmt.Sprint(m.Member)
	}

	pipe := s.redis.Pipeline()
	lastCmd := pipe.HMGet(ctx, TrendingLastSearchedKey, queries...)
	seqCmd := pipe.HMGet(ctx, TrendingFirstSeenKey, queries...)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: trending: %v", ErrUpstreamUnavailable, err)
	}

	lasts := lastCmd.Val()
	seqs := seqCmd.Val()
	entries := make([]counterEntry, len(members))
	for i, m := range members {
		entries[i] = counterEntry{
			query: queries[i],
			count: int64(m.Score),
			last:  parseRedisInt(lasts, i),
			seq:   parseRedisInt(seqs, i),
		}
	}

	return rankEntries(entries, n), nil
}

func parseRedisInt(values []interface{}, i int) int64 {
	if i >= len(values) || values[i] == nil {
		return 0
	}
	v, err := strconv.ParseInt(fmt.Sprint(values[i]), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

// memoryCounter is one query's counter; fields are updated with atomics only.
type memoryCounter struct {
	count atomic.Int64
	last  atomic.Int64
	seq   int64
}

// MemoryCounterStore is a single-process CounterStore. Each key is updated with
// atomic add and a compare-and-swap loop, so increments never share a lock.
type MemoryCounterStore struct {
	counters sync.Map // string -> *memoryCounter
	seq      atomic.Int64
}

// NewMemoryCounterStore creates a new MemoryCounterStore
func NewMemoryCounterStore() *MemoryCounterStore {
	return &MemoryCounterStore{}
}

// Increment implements CounterStore
func (s *MemoryCounterStore) Increment(_ context.Context, query string, at time.Time) (models.TrendingCounter, error) {
	c, ok := s.counters.Load(query)
	if !ok {
		fresh := &memoryCounter{seq: s.seq.Add(1)}
		c, _ = s.counters.LoadOrStore(query, fresh)
	}
	counter := c.(*memoryCounter)

	count := counter.count.Add(1)
	ts := at.UnixMicro()
	for {
		prev := counter.last.Load()
		if ts <= prev {
			ts = prev
			break
		}
		if counter.last.CompareAndSwap(prev, ts) {
			break
		}
	}

	return models.TrendingCounter{
		Query:        query,
		Count:        count,
		LastSearched: time.UnixMicro(ts).UTC(),
	}, nil
}

// Top implements CounterStore
func (s *MemoryCounterStore) Top(_ context.Context, n int) ([]models.TrendingCounter, error) {
	entries := make([]counterEntry, 0)
	s.counters.Range(func(key, value interface{}) bool {
		c := value.(*memoryCounter)
		entries = append(entries, counterEntry{
			query: key.(string),
			count: c.count.Load(),
			last:  c.last.Load(),
			seq:   c.seq,
		})
		return true
	})
	return rankEntries(entries, n), nil
}
