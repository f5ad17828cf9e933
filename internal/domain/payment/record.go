package payment

import (
	"fmt"
	"strings"
	"time"

	"github.com/opensox/paygate/internal/shared/id"
)

// Record is a captured provider payment. Once created it is never modified.
type Record struct {
	id                string
	userID            string
	providerPaymentID string
	providerOrderID   string
	amountMinorUnits  int64
	currency          string
	createdAt         time.Time
}

// NewRecord validates the captured payment fields and assigns a fresh id.
// providerOrderID is empty for payments captured without an order.
func NewRecord(userID, providerPaymentID, providerOrderID string, amountMinorUnits int64, currency string, now time.Time) (*Record, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if providerPaymentID == "" {
		return nil, ErrProviderPaymentIDRequired
	}
	if amountMinorUnits < 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidAmount, amountMinorUnits)
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if len(currency) != 3 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}

	return &Record{
		id:                id.NewWithPrefix(id.PrefixPayment),
		userID:            userID,
		providerPaymentID: providerPaymentID,
		providerOrderID:   providerOrderID,
		amountMinorUnits:  amountMinorUnits,
		currency:          currency,
		createdAt:         now.UTC(),
	}, nil
}

// ReconstructRecord reconstructs a record from persistence
func ReconstructRecord(
	recordID, userID, providerPaymentID, providerOrderID string,
	amountMinorUnits int64,
	currency string,
	createdAt time.Time,
) (*Record, error) {
	if recordID == "" {
		return nil, fmt.Errorf("payment record ID cannot be empty")
	}
	if providerPaymentID == "" {
		return nil, ErrProviderPaymentIDRequired
	}

	return &Record{
		id:                recordID,
		userID:            userID,
		providerPaymentID: providerPaymentID,
		providerOrderID:   providerOrderID,
		amountMinorUnits:  amountMinorUnits,
		currency:          currency,
		createdAt:         createdAt,
	}, nil
}

func (r *Record) ID() string                { return r.id }
func (r *Record) UserID() string            { return r.userID }
func (r *Record) ProviderPaymentID() string { return r.providerPaymentID }
func (r *Record) ProviderOrderID() string   { return r.providerOrderID }
func (r *Record) AmountMinorUnits() int64   { return r.amountMinorUnits }
func (r *Record) Currency() string          { return r.currency }
func (r *Record) CreatedAt() time.Time      { return r.createdAt }
