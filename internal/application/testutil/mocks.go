// Package testutil provides mock implementations for testing the application layer.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/opensox/paygate/internal/domain/payment"
	"github.com/opensox/paygate/internal/domain/reconciliation"
	"github.com/opensox/paygate/internal/domain/shared/events"
)

// ErrDuplicate mimics a storage unique-index violation.
var ErrDuplicate = errors.New("Error 1062 (23000): Duplicate entry for key 'uk_payment_records_provider_payment_id'")

// MockPaymentRepository is an in-memory payment.Repository with error injection.
type MockPaymentRepository struct {
	mu      sync.RWMutex
	records map[string]*payment.Record

	createError error
	getError    error
	// blockUntilDone makes every call wait for ctx cancellation.
	blockUntilDone bool
	// beforeCreate runs before the uniqueness check, outside the lock.
	beforeCreate func()

	createCalls int
}

func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{records: make(map[string]*payment.Record)}
}

func (m *MockPaymentRepository) SetCreateError(err error) { m.createError = err }
func (m *MockPaymentRepository) SetGetError(err error)    { m.getError = err }
func (m *MockPaymentRepository) SetBlockUntilDone(b bool) { m.blockUntilDone = b }
func (m *MockPaymentRepository) SetBeforeCreate(fn func()) {
	m.beforeCreate = fn
}

// Add stores r directly.
func (m *MockPaymentRepository) Add(r *payment.Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[r.ProviderPaymentID()] = r
}

func (m *MockPaymentRepository) CreateCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.createCalls
}

func (m *MockPaymentRepository) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

func (m *MockPaymentRepository) Create(ctx context.Context, r *payment.Record) error {
	if m.blockUntilDone {
		<-ctx.Done()
		return ctx.Err()
	}
	if m.beforeCreate != nil {
		m.beforeCreate()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.createCalls++
	if m.createError != nil {
		return m.createError
	}
	if _, exists := m.records[r.ProviderPaymentID()]; exists {
		return fmt.Errorf("failed to create payment record: %w", ErrDuplicate)
	}
	m.records[r.ProviderPaymentID()] = r
	return nil
}

func (m *MockPaymentRepository) GetByProviderPaymentID(ctx context.Context, providerPaymentID string) (*payment.Record, error) {
	if m.blockUntilDone {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.getError != nil {
		return nil, m.getError
	}
	return m.records[providerPaymentID], nil
}

// MockReconciliationRepository is an in-memory reconciliation.Repository.
type MockReconciliationRepository struct {
	mu      sync.RWMutex
	records map[string]*reconciliation.Record

	flagError   error
	updateError error
}

func NewMockReconciliationRepository() *MockReconciliationRepository {
	return &MockReconciliationRepository{records: make(map[string]*reconciliation.Record)}
}

func (m *MockReconciliationRepository) SetFlagError(err error)   { m.flagError = err }
func (m *MockReconciliationRepository) SetUpdateError(err error) { m.updateError = err }

func reconciliationKey(paymentID string, stage reconciliation.Stage) string {
	return paymentID + "/" + string(stage)
}

func (m *MockReconciliationRepository) Flag(_ context.Context, r *reconciliation.Record) (*reconciliation.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.flagError != nil {
		return nil, m.flagError
	}

	key := reconciliationKey(r.Flag().ProviderPaymentID, r.Stage())
	existing, ok := m.records[key]
	if !ok {
		m.records[key] = r
		return r, nil
	}

	flag := existing.Flag()
	flag.Error = r.Flag().Error
	updated := reconciliation.ReconstructRecord(
		existing.ID(), flag, reconciliation.StatusPending, existing.Attempts()+1,
		existing.CreatedAt(), r.UpdatedAt(), nil,
	)
	m.records[key] = updated
	return updated, nil
}

func (m *MockReconciliationRepository) ListPending(_ context.Context, limit int) ([]*reconciliation.Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []*reconciliation.Record
	for _, r := range m.records {
		if r.Status() == reconciliation.StatusPending {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt().Before(out[j].CreatedAt())
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockReconciliationRepository) Update(_ context.Context, r *reconciliation.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateError != nil {
		return m.updateError
	}
	m.records[reconciliationKey(r.Flag().ProviderPaymentID, r.Stage())] = r
	return nil
}

func (m *MockReconciliationRepository) CountByStatus(_ context.Context, status reconciliation.Status) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n int64
	for _, r := range m.records {
		if r.Status() == status {
			n++
		}
	}
	return n, nil
}

// Get returns the record for (paymentID, stage), or nil.
func (m *MockReconciliationRepository) Get(paymentID string, stage reconciliation.Stage) *reconciliation.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.records[reconciliationKey(paymentID, stage)]
}

func (m *MockReconciliationRepository) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []events.DomainEvent
	err    error
}

func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (p *MockPublisher) SetError(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

func (p *MockPublisher) Publish(_ context.Context, event events.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, event)
	return p.err
}

// Types returns the event types published so far, in order.
func (p *MockPublisher) Types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.GetEventType())
	}
	return out
}
