package subscription

import (
	"errors"
	"fmt"
)

var (
	ErrSubscriptionNotFound    = errors.New("subscription not found")
	ErrInvalidStatusTransition = errors.New("invalid status transition")
	ErrPlanNotFound            = errors.New("subscription plan not found")
	ErrPlanConflict            = errors.New("user has an active subscription on a different plan")
	ErrVersionConflict         = errors.New("subscription was modified concurrently")
)

func ErrInvalidTransition(from, to string) error {
	return fmt.Errorf("%w: from %s to %s", ErrInvalidStatusTransition, from, to)
}
