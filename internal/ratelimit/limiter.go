// Package ratelimit implements a process-local sliding-window rate limiter.
// Counts are per instance and reset on restart; in a horizontally scaled
// deployment limits apply per instance, not globally.
package ratelimit

import (
	"errors"
	"hash/fnv"
	"sync"
	"time"
)

var ErrRateLimited = errors.New("rate limited")

const shardCount = 64

type shard struct {
	mu      sync.Mutex
	windows map[string][]time.Time
}

// Limiter keeps a trailing-window timestamp list per key. Keys are sharded
// across independently locked maps so prune+check+append stays atomic per
// key without a single global lock.
type Limiter struct {
	shards [shardCount]*shard
	now    func() time.Time
}

func New() *Limiter {
	l := &Limiter{now: time.Now}
	for i := range l.shards {
		l.shards[i] = &shard{windows: make(map[string][]time.Time)}
	}
	return l
}

// IsLimited prunes timestamps older than now-window, then admits the call
// and records it unless the key already has limit entries in the window.
func (l *Limiter) IsLimited(key string, limit int, window time.Duration) bool {
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	now := l.now()
	ts := prune(s.windows[key], now.Add(-window))
	if len(ts) >= limit {
		s.windows[key] = ts
		return true
	}
	s.windows[key] = append(ts, now)
	return false
}

// Remaining reports how many more calls the key may make in the current
// window. Read-only apart from pruning.
func (l *Limiter) Remaining(key string, limit int, window time.Duration) int {
	s := l.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	ts := prune(s.windows[key], l.now().Add(-window))
	if len(ts) == 0 {
		delete(s.windows, key)
	} else {
		s.windows[key] = ts
	}
	if remaining := limit - len(ts); remaining > 0 {
		return remaining
	}
	return 0
}

func (l *Limiter) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return l.shards[h.Sum32()%shardCount]
}

// prune drops entries at or before the cutoff. Timestamps are appended in
// order, so everything from the first survivor onward is kept. The survivors
// are copied to a fresh slice so the old backing array can be collected.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append([]time.Time(nil), ts[i:]...)
}
