package subscription

import (
	"context"
	"time"
)

// Plan is a purchasable plan. Duration is the term one payment buys.
type Plan struct {
	ID         string
	Name       string
	Duration   time.Duration
	PriceMinor int64
	Currency   string
}

// PlanCatalog resolves plan ids carried in payment notes.
type PlanCatalog interface {
	// GetPlan returns ErrPlanNotFound for unknown ids.
	GetPlan(ctx context.Context, planID string) (Plan, error)
}
