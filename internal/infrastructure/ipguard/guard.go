// Package ipguard tracks misbehaving client addresses and bans them with
// exponential backoff. State is in-process and lost on restart.
package ipguard

import (
	"sort"
	"time"

	"github.com/opensox/paygate/internal/shared/biztime"
	"github.com/opensox/paygate/internal/shared/shardlock"
)

type Config struct {
	Threshold       int
	BaseBan         time.Duration
	MaxBan          time.Duration
	ViolationWindow time.Duration
	Shards          int
}

func DefaultConfig() Config {
	return Config{
		Threshold:       5,
		BaseBan:         15 * time.Minute,
		MaxBan:          24 * time.Hour,
		ViolationWindow: 15 * time.Minute,
		Shards:          shardlock.DefaultShards,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Threshold <= 0 {
		c.Threshold = d.Threshold
	}
	if c.BaseBan <= 0 {
		c.BaseBan = d.BaseBan
	}
	if c.MaxBan < c.BaseBan {
		c.MaxBan = c.BaseBan
	}
	if c.ViolationWindow <= 0 {
		c.ViolationWindow = d.ViolationWindow
	}
	return c
}

// BanRecord is the guard's view of one address.
type BanRecord struct {
	Address         string
	ViolationCount  int
	BannedUntil     *time.Time
	LastViolationAt time.Time
}

// Decision is the outcome of Admit.
type Decision struct {
	Allowed    bool
	RetryAfter time.Duration
}

// Guard is safe for concurrent use. Records are sharded by address hash and
// each shard is protected by its own mutex.
type Guard struct {
	cfg    Config
	clock  biztime.Clock
	locks  *shardlock.Set
	shards []map[string]*BanRecord
}

func New(cfg Config, clock biztime.Clock) *Guard {
	cfg = cfg.withDefaults()
	if clock == nil {
		clock = biztime.System()
	}
	locks := shardlock.New(cfg.Shards)
	shards := make([]map[string]*BanRecord, locks.Len())
	for i := range shards {
		shards[i] = make(map[string]*BanRecord)
	}
	return &Guard{cfg: cfg, clock: clock, locks: locks, shards: shards}
}

// Admit checks address and, when isViolation is set, records one violation
// first. The returned decision reflects state after the call.
func (g *Guard) Admit(address string, isViolation bool) Decision {
	now := g.clock.Now()
	idx := g.locks.Index(address)
	unlock := g.locks.LockIndex(idx)
	defer unlock()

	shard := g.shards[idx]
	rec := shard[address]

	if rec != nil && rec.BannedUntil != nil && !now.Before(*rec.BannedUntil) {
		rec.ViolationCount = 0
		rec.BannedUntil = nil
		if !isViolation {
			delete(shard, address)
			rec = nil
		}
	}

	if !isViolation {
		if rec != nil && rec.BannedUntil != nil {
			return Decision{Allowed: false, RetryAfter: rec.BannedUntil.Sub(now)}
		}
		return Decision{Allowed: true}
	}

	if rec == nil {
		rec = &BanRecord{Address: address}
		shard[address] = rec
	}
	if rec.BannedUntil == nil && !rec.LastViolationAt.IsZero() && now.Sub(rec.LastViolationAt) > g.cfg.ViolationWindow {
		rec.ViolationCount = 0
	}

	rec.ViolationCount++
	rec.LastViolationAt = now

	if rec.ViolationCount >= g.cfg.Threshold {
		until := now.Add(g.backoff(rec.ViolationCount))
		if rec.BannedUntil == nil || until.After(*rec.BannedUntil) {
			rec.BannedUntil = &until
		}
	}

	if rec.BannedUntil != nil {
		return Decision{Allowed: false, RetryAfter: rec.BannedUntil.Sub(now)}
	}
	return Decision{Allowed: true}
}

// backoff returns BaseBan * 2^(n-Threshold), capped at MaxBan.
func (g *Guard) backoff(n int) time.Duration {
	d := g.cfg.BaseBan
	for i := g.cfg.Threshold; i < n && d < g.cfg.MaxBan; i++ {
		d *= 2
	}
	if d > g.cfg.MaxBan {
		d = g.cfg.MaxBan
	}
	return d
}

// ListBanned returns addresses banned at the time of the call, latest
// expiry first. It never mutates guard state.
func (g *Guard) ListBanned() []BanRecord {
	now := g.clock.Now()
	var out []BanRecord

	for i := range g.shards {
		unlock := g.locks.LockIndex(i)
		for _, rec := range g.shards[i] {
			if rec.BannedUntil == nil || !now.Before(*rec.BannedUntil) {
				continue
			}
			cp := *rec
			until := *rec.BannedUntil
			cp.BannedUntil = &until
			out = append(out, cp)
		}
		unlock()
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].BannedUntil.Equal(*out[j].BannedUntil) {
			return out[i].BannedUntil.After(*out[j].BannedUntil)
		}
		return out[i].Address < out[j].Address
	})
	return out
}

// Prune drops records that are neither banned nor within the violation
// window. It returns the number removed.
func (g *Guard) Prune() int {
	now := g.clock.Now()
	removed := 0

	for i := range g.shards {
		unlock := g.locks.LockIndex(i)
		for addr, rec := range g.shards[i] {
			if rec.BannedUntil != nil && now.Before(*rec.BannedUntil) {
				continue
			}
			if rec.BannedUntil == nil && now.Sub(rec.LastViolationAt) <= g.cfg.ViolationWindow {
				continue
			}
			delete(g.shards[i], addr)
			removed++
		}
		unlock()
	}
	return removed
}

// Len returns the number of tracked addresses.
func (g *Guard) Len() int {
	n := 0
	for i := range g.shards {
		unlock := g.locks.LockIndex(i)
		n += len(g.shards[i])
		unlock()
	}
	return n
}
