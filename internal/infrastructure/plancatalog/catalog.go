// Package plancatalog serves subscription plans declared in configuration.
package plancatalog

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/opensox/paygate/internal/domain/subscription"
	"github.com/opensox/paygate/internal/shared/config"
)

// Catalog is an immutable, in-memory PlanCatalog.
type Catalog struct {
	plans map[string]subscription.Plan
}

// New validates cfgs and builds the catalog. Plan ids are unique.
func New(cfgs []config.PlanConfig) (*Catalog, error) {
	plans := make(map[string]subscription.Plan, len(cfgs))
	for i, pc := range cfgs {
		if pc.ID == "" {
			return nil, fmt.Errorf("plan %d: id is required", i)
		}
		if pc.Duration <= 0 {
			return nil, fmt.Errorf("plan %s: duration must be positive", pc.ID)
		}
		if _, dup := plans[pc.ID]; dup {
			return nil, fmt.Errorf("plan %s: declared twice", pc.ID)
		}
		plans[pc.ID] = subscription.Plan{
			ID:         pc.ID,
			Name:       pc.Name,
			Duration:   pc.Duration,
			PriceMinor: pc.PriceMinor,
			Currency:   strings.ToUpper(pc.Currency),
		}
	}
	return &Catalog{plans: plans}, nil
}

func (c *Catalog) GetPlan(_ context.Context, planID string) (subscription.Plan, error) {
	p, ok := c.plans[planID]
	if !ok {
		return subscription.Plan{}, fmt.Errorf("%w: %s", subscription.ErrPlanNotFound, planID)
	}
	return p, nil
}

// IDs returns the configured plan ids, sorted.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.plans))
	for id := range c.plans {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
