package errors

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestIsDuplicateError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"gorm translated", fmt.Errorf("create: %w", gorm.ErrDuplicatedKey), true},
		{"mysql", errors.New("Error 1062 (23000): Duplicate entry 'pay_1' for key 'uk_provider_payment_id'"), true},
		{"sqlite", errors.New("UNIQUE constraint failed: payment_records.provider_payment_id"), true},
		{"postgres", errors.New("ERROR: duplicate key value violates unique constraint"), true},
		{"other", errors.New("connection refused"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsDuplicateError(tt.err))
		})
	}
}

func TestInfrastructureError(t *testing.T) {
	cause := errors.New("dial tcp: i/o timeout")
	err := fmt.Errorf("record payment: %w", NewInfrastructureError("storage unavailable", cause))

	assert.True(t, IsInfrastructureError(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusInternalServerError, GetAppError(err).Code)
	assert.True(t, IsInfrastructureError(fmt.Errorf("lookup: %w", context.DeadlineExceeded)))
	assert.False(t, IsInfrastructureError(NewValidationError("bad")))
}

func TestTypePredicates(t *testing.T) {
	assert.True(t, IsConflictError(NewConflictError("plan conflict")))
	assert.True(t, IsUnauthorizedError(NewUnauthorizedError("no token")))
	assert.False(t, IsNotFoundError(errors.New("plain")))
	assert.Equal(t, http.StatusTooManyRequests, NewTooManyRequestsError("slow down").Code)
}
