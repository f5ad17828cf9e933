package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderContentType   = "Content-Type"
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"
	HeaderRetryAfter    = "Retry-After"

	// Content Types
	ContentTypeJSON = "application/json"

	// Context keys
	ContextKeyUserID    = "user_id"
	ContextKeyUserRole  = "user_role"
	ContextKeyRequestID = "request_id"
	ContextKeyViolation = "guard_violation"

	// Database table names
	TablePaymentRecords          = "payment_records"
	TableSubscriptions           = "subscriptions"
	TableSubscriptionActivations = "subscription_activations"
	TableReconciliationRecords   = "reconciliation_records"

	// Rate limit route classes
	RouteClassAuth = "auth"
	RouteClassAPI  = "api"

	// Error messages
	ErrMsgInternalServerError = "Internal server error occurred"
	ErrMsgUnauthorized        = "Unauthorized access"
	ErrMsgForbidden           = "Access forbidden"
	ErrMsgTooManyRequests     = "Too many requests, please try again later"
	ErrMsgBlocked             = "Access temporarily blocked"
)
