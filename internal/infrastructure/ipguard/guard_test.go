package ipguard

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opensox/paygate/internal/shared/biztime"
)

var t0 = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestGuard() (*Guard, *biztime.ManualClock) {
	clock := biztime.NewManualClock(t0)
	return New(DefaultConfig(), clock), clock
}

func TestAdmit_NonViolationOnUnknownAddress(t *testing.T) {
	g, _ := newTestGuard()

	d := g.Admit("203.0.113.1", false)

	assert.True(t, d.Allowed)
	assert.Zero(t, g.Len())
}

func TestAdmit_BansAtThreshold(t *testing.T) {
	g, _ := newTestGuard()
	addr := "203.0.113.2"

	for i := 0; i < 4; i++ {
		assert.True(t, g.Admit(addr, true).Allowed, "violation %d", i+1)
	}

	d := g.Admit(addr, true)
	assert.False(t, d.Allowed)
	assert.Equal(t, 15*time.Minute, d.RetryAfter)

	d = g.Admit(addr, false)
	assert.False(t, d.Allowed)
	assert.Equal(t, 15*time.Minute, d.RetryAfter)
}

func TestAdmit_ExponentialBackoffCapped(t *testing.T) {
	g, _ := newTestGuard()
	addr := "203.0.113.3"

	var last Decision
	for i := 0; i < 5; i++ {
		last = g.Admit(addr, true)
	}
	assert.Equal(t, 15*time.Minute, last.RetryAfter)

	last = g.Admit(addr, true)
	assert.Equal(t, 30*time.Minute, last.RetryAfter)

	last = g.Admit(addr, true)
	assert.Equal(t, 60*time.Minute, last.RetryAfter)

	for i := 0; i < 20; i++ {
		last = g.Admit(addr, true)
	}
	assert.Equal(t, 24*time.Hour, last.RetryAfter)
}

func TestAdmit_BanNeverShortens(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxBan = 15 * time.Minute
	clock := biztime.NewManualClock(t0)
	g := New(cfg, clock)
	addr := "203.0.113.4"

	for i := 0; i < 5; i++ {
		g.Admit(addr, true)
	}
	before := g.ListBanned()[0].BannedUntil

	clock.Advance(time.Minute)
	g.Admit(addr, true)
	after := g.ListBanned()[0].BannedUntil

	assert.False(t, after.Before(*before))
}

func TestAdmit_LazyExpiryResetsCount(t *testing.T) {
	g, clock := newTestGuard()
	addr := "203.0.113.5"

	for i := 0; i < 5; i++ {
		g.Admit(addr, true)
	}
	require.False(t, g.Admit(addr, false).Allowed)

	clock.Advance(15 * time.Minute)

	assert.True(t, g.Admit(addr, false).Allowed)
	assert.Empty(t, g.ListBanned())

	// Count restarted, so one more violation is not enough to re-ban.
	assert.True(t, g.Admit(addr, true).Allowed)
}

func TestAdmit_ViolationDecay(t *testing.T) {
	g, clock := newTestGuard()
	addr := "203.0.113.6"

	for i := 0; i < 4; i++ {
		g.Admit(addr, true)
	}
	clock.Advance(16 * time.Minute)

	assert.True(t, g.Admit(addr, true).Allowed)
}

func TestListBanned_OrderAndNoMutation(t *testing.T) {
	g, clock := newTestGuard()

	for i := 0; i < 5; i++ {
		g.Admit("198.51.100.2", true)
		g.Admit("198.51.100.1", true)
	}
	clock.Advance(time.Second)
	for i := 0; i < 6; i++ {
		g.Admit("198.51.100.3", true)
	}

	list := g.ListBanned()
	require.Len(t, list, 3)
	assert.Equal(t, "198.51.100.3", list[0].Address)
	assert.Equal(t, "198.51.100.1", list[1].Address)
	assert.Equal(t, "198.51.100.2", list[2].Address)

	list[0].ViolationCount = 0
	assert.Equal(t, 6, g.ListBanned()[0].ViolationCount)
}

func TestPrune(t *testing.T) {
	g, clock := newTestGuard()

	g.Admit("192.0.2.1", true)
	for i := 0; i < 5; i++ {
		g.Admit("192.0.2.2", true)
	}
	clock.Advance(16 * time.Minute)
	g.Admit("192.0.2.3", true)

	removed := g.Prune()

	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, g.Len())
}

func TestAdmit_Concurrent(t *testing.T) {
	g, _ := newTestGuard()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		for j := 0; j < 10; j++ {
			wg.Add(1)
			go func(addr string) {
				defer wg.Done()
				g.Admit(addr, true)
			}(fmt.Sprintf("10.0.0.%d", i))
		}
	}
	wg.Wait()

	banned := g.ListBanned()
	require.Len(t, banned, 8)
	for _, rec := range banned {
		assert.Equal(t, 10, rec.ViolationCount)
	}
}
