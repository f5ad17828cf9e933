// Package ratelimit implements fixed-window request budgets per identity and route class.
package ratelimit

import (
	"context"
	"errors"
	"time"

	sharedConfig "github.com/opensox/paygate/internal/shared/config"
	"github.com/opensox/paygate/internal/shared/constants"
)

var ErrUnknownRouteClass = errors.New("unknown rate limit route class")

// Rule is the ceiling for one route class.
type Rule struct {
	Limit  int
	Window time.Duration
}

// Rules maps a route class to its rule.
type Rules map[string]Rule

// RulesFromConfig builds the auth and api rules, falling back to 5 and 100
// requests per 15 minutes.
func RulesFromConfig(cfg sharedConfig.RateLimitConfig) Rules {
	rule := func(c sharedConfig.RouteLimitConfig, limit int) Rule {
		r := Rule{Limit: c.Limit, Window: c.Window}
		if r.Limit <= 0 {
			r.Limit = limit
		}
		if r.Window <= 0 {
			r.Window = 15 * time.Minute
		}
		return r
	}
	return Rules{
		constants.RouteClassAuth: rule(cfg.Auth, 5),
		constants.RouteClassAPI:  rule(cfg.API, 100),
	}
}

// Decision is the outcome of one Consume call.
type Decision struct {
	Allowed    bool
	Count      int
	Limit      int
	RetryAfter time.Duration
	ResetAt    time.Time
}

// Remaining returns how many requests are left in the current window.
func (d Decision) Remaining() int {
	if d.Count >= d.Limit {
		return 0
	}
	return d.Limit - d.Count
}

// RateLimiter consumes one unit of budget. On backend failure implementations
// return an allowing decision together with the error.
type RateLimiter interface {
	Consume(ctx context.Context, identity, routeClass string) (Decision, error)
}

func decide(count int, rule Rule, windowStart, now time.Time) Decision {
	resetAt := windowStart.Add(rule.Window)
	d := Decision{
		Allowed: count <= rule.Limit,
		Count:   count,
		Limit:   rule.Limit,
		ResetAt: resetAt,
	}
	if !d.Allowed {
		d.RetryAfter = resetAt.Sub(now)
	}
	return d
}
