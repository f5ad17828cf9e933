package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/opensox/paygate/internal/shared/biztime"
	"github.com/opensox/paygate/internal/shared/shardlock"
)

type window struct {
	start time.Time
	count int
	until time.Time
}

// MemoryRateLimiter keeps windows in a sharded in-process table. Windows
// start at the first request, not on a wall-clock boundary.
type MemoryRateLimiter struct {
	rules  Rules
	clock  biztime.Clock
	locks  *shardlock.Set
	shards []map[string]*window
}

func NewMemoryRateLimiter(rules Rules, clock biztime.Clock, shards int) *MemoryRateLimiter {
	if clock == nil {
		clock = biztime.System()
	}
	locks := shardlock.New(shards)
	tables := make([]map[string]*window, locks.Len())
	for i := range tables {
		tables[i] = make(map[string]*window)
	}
	return &MemoryRateLimiter{rules: rules, clock: clock, locks: locks, shards: tables}
}

func (l *MemoryRateLimiter) Consume(_ context.Context, identity, routeClass string) (Decision, error) {
	rule, ok := l.rules[routeClass]
	if !ok {
		return Decision{Allowed: true}, fmt.Errorf("%w: %s", ErrUnknownRouteClass, routeClass)
	}

	now := l.clock.Now()
	key := routeClass + "|" + identity
	idx := l.locks.Index(key)
	unlock := l.locks.LockIndex(idx)
	defer unlock()

	w := l.shards[idx][key]
	switch {
	case w == nil || !now.Before(w.until):
		w = &window{start: now, count: 1, until: now.Add(rule.Window)}
		l.shards[idx][key] = w
	case w.count <= rule.Limit:
		// Stop counting once over the limit; the window expiry alone resets it.
		w.count++
	}

	return decide(w.count, rule, w.start, now), nil
}

// Prune drops windows that have ended and returns how many were removed.
func (l *MemoryRateLimiter) Prune() int {
	now := l.clock.Now()
	removed := 0
	for i := range l.shards {
		unlock := l.locks.LockIndex(i)
		for key, w := range l.shards[i] {
			if !now.Before(w.until) {
				delete(l.shards[i], key)
				removed++
			}
		}
		unlock()
	}
	return removed
}
