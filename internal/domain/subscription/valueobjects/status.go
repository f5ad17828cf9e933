package valueobjects

type SubscriptionStatus string

const (
	StatusActive    SubscriptionStatus = "active"
	StatusExpired   SubscriptionStatus = "expired"
	StatusCancelled SubscriptionStatus = "cancelled"
)

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) CanUseService() bool {
	return s == StatusActive
}

func (s SubscriptionStatus) CanTransitionTo(target SubscriptionStatus) bool {
	switch s {
	case StatusActive:
		return target == StatusExpired || target == StatusCancelled
	default:
		return false
	}
}

var ValidStatuses = map[SubscriptionStatus]bool{
	StatusActive:    true,
	StatusExpired:   true,
	StatusCancelled: true,
}

// ActivationKind records how a payment was applied to subscription state.
type ActivationKind string

const (
	ActivationCreated    ActivationKind = "created"
	ActivationRenewed    ActivationKind = "renewed"
	ActivationSuperseded ActivationKind = "superseded"
)

// ConflictPolicy decides what happens when a user with an active plan pays for a different plan.
type ConflictPolicy string

const (
	ConflictSupersede ConflictPolicy = "supersede"
	ConflictReject    ConflictPolicy = "reject"
)

func (p ConflictPolicy) IsValid() bool {
	return p == ConflictSupersede || p == ConflictReject
}
