package subscription

import (
	"fmt"
	"time"

	vo "github.com/opensox/paygate/internal/domain/subscription/valueobjects"
	"github.com/opensox/paygate/internal/shared/id"
)

// Subscription represents the subscription aggregate root
type Subscription struct {
	id                   string
	userID               string
	planID               string
	status               vo.SubscriptionStatus
	startDate            time.Time
	endDate              time.Time
	originatingPaymentID string
	version              int
	createdAt            time.Time
	updatedAt            time.Time
}

// NewSubscription creates an active subscription covering [now, now+duration).
func NewSubscription(userID string, plan Plan, paymentRecordID string, now time.Time) (*Subscription, error) {
	if userID == "" {
		return nil, fmt.Errorf("user ID is required")
	}
	if plan.ID == "" {
		return nil, fmt.Errorf("plan ID is required")
	}
	if plan.Duration <= 0 {
		return nil, fmt.Errorf("plan %s has no duration", plan.ID)
	}
	if paymentRecordID == "" {
		return nil, fmt.Errorf("payment record ID is required")
	}

	now = now.UTC()
	return &Subscription{
		id:                   id.NewWithPrefix(id.PrefixSubscription),
		userID:               userID,
		planID:               plan.ID,
		status:               vo.StatusActive,
		startDate:            now,
		endDate:              now.Add(plan.Duration),
		originatingPaymentID: paymentRecordID,
		version:              1,
		createdAt:            now,
		updatedAt:            now,
	}, nil
}

// ReconstructSubscription reconstructs a subscription from persistence
func ReconstructSubscription(
	subscriptionID, userID, planID string,
	status vo.SubscriptionStatus,
	startDate, endDate time.Time,
	originatingPaymentID string,
	version int,
	createdAt, updatedAt time.Time,
) (*Subscription, error) {
	if subscriptionID == "" {
		return nil, fmt.Errorf("subscription ID cannot be empty")
	}
	if !vo.ValidStatuses[status] {
		return nil, fmt.Errorf("invalid subscription status: %s", status)
	}

	return &Subscription{
		id:                   subscriptionID,
		userID:               userID,
		planID:               planID,
		status:               status,
		startDate:            startDate,
		endDate:              endDate,
		originatingPaymentID: originatingPaymentID,
		version:              version,
		createdAt:            createdAt,
		updatedAt:            updatedAt,
	}, nil
}

func (s *Subscription) ID() string                    { return s.id }
func (s *Subscription) UserID() string                { return s.userID }
func (s *Subscription) PlanID() string                { return s.planID }
func (s *Subscription) Status() vo.SubscriptionStatus { return s.status }
func (s *Subscription) StartDate() time.Time          { return s.startDate }
func (s *Subscription) EndDate() time.Time            { return s.endDate }
func (s *Subscription) OriginatingPaymentID() string  { return s.originatingPaymentID }
func (s *Subscription) Version() int                  { return s.version }
func (s *Subscription) CreatedAt() time.Time          { return s.createdAt }
func (s *Subscription) UpdatedAt() time.Time          { return s.updatedAt }

// IsCurrent reports whether the subscription grants access at now.
func (s *Subscription) IsCurrent(now time.Time) bool {
	return s.status.CanUseService() && s.endDate.After(now)
}

// Extend pushes EndDate out by d, stacking on top of the remaining term.
func (s *Subscription) Extend(d time.Duration, paymentRecordID string, now time.Time) error {
	if s.status != vo.StatusActive {
		return ErrInvalidTransition(string(s.status), "renewed")
	}
	if d <= 0 {
		return fmt.Errorf("extension must be positive, got %s", d)
	}

	s.endDate = s.endDate.Add(d)
	s.originatingPaymentID = paymentRecordID
	s.touch(now)
	return nil
}

// MarkAsExpired moves an active subscription to expired. Used both when its
// term ends and when a different plan supersedes it.
func (s *Subscription) MarkAsExpired(now time.Time) error {
	if !s.status.CanTransitionTo(vo.StatusExpired) {
		return ErrInvalidTransition(string(s.status), string(vo.StatusExpired))
	}
	s.status = vo.StatusExpired
	if s.endDate.After(now) {
		s.endDate = now.UTC()
	}
	s.touch(now)
	return nil
}

// Cancel moves an active subscription to cancelled.
func (s *Subscription) Cancel(now time.Time) error {
	if !s.status.CanTransitionTo(vo.StatusCancelled) {
		return ErrInvalidTransition(string(s.status), string(vo.StatusCancelled))
	}
	s.status = vo.StatusCancelled
	s.touch(now)
	return nil
}

func (s *Subscription) touch(now time.Time) {
	s.updatedAt = now.UTC()
	s.version++
}
