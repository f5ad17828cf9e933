package valueobjects

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionStatus_CanTransitionTo(t *testing.T) {
	assert.True(t, StatusActive.CanTransitionTo(StatusExpired))
	assert.True(t, StatusActive.CanTransitionTo(StatusCancelled))
	assert.False(t, StatusExpired.CanTransitionTo(StatusActive))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusExpired))
}

func TestConflictPolicy_IsValid(t *testing.T) {
	assert.True(t, ConflictSupersede.IsValid())
	assert.True(t, ConflictReject.IsValid())
	assert.False(t, ConflictPolicy("merge").IsValid())
}
