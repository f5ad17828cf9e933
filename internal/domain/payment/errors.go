package payment

import "errors"

var (
	ErrUserIDRequired            = errors.New("user ID is required")
	ErrProviderPaymentIDRequired = errors.New("provider payment ID is required")
	ErrInvalidAmount             = errors.New("invalid payment amount")
	ErrInvalidCurrency           = errors.New("invalid currency")
)
