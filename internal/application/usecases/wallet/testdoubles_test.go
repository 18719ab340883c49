package wallet

import (
	"context"

	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/domain/entities"
	domainErrors "github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/events"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// mockVasTransactionRepo is shared across the wallet use-case tests.
type mockVasTransactionRepo struct {
	saveFunc           func(ctx context.Context, tx *entities.VasTransaction) error
	findByRequestIDFunc func(ctx context.Context, userID uuid.UUID, requestID string) (*entities.VasTransaction, error)
}

func (m *mockVasTransactionRepo) Save(ctx context.Context, tx *entities.VasTransaction) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, tx)
	}
	return nil
}

func (m *mockVasTransactionRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.VasTransaction, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockVasTransactionRepo) FindByRequestID(ctx context.Context, userID uuid.UUID, requestID string) (*entities.VasTransaction, error) {
	if m.findByRequestIDFunc != nil {
		return m.findByRequestIDFunc(ctx, userID, requestID)
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockVasTransactionRepo) FindByTransactionReference(ctx context.Context, reference string) (*entities.VasTransaction, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockVasTransactionRepo) FindRecentSuccess(ctx context.Context, userID uuid.UUID, txType entities.VasTransactionType, amount valueobjects.Money, phoneNumber string, windowMinutes int) (*entities.VasTransaction, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockVasTransactionRepo) FindInFlight(ctx context.Context, userID uuid.UUID, txType entities.VasTransactionType, amount valueobjects.Money, phoneNumber string, windowMinutes int) (*entities.VasTransaction, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockVasTransactionRepo) List(ctx context.Context, filter ports.VasTransactionFilter, offset, limit int) ([]*entities.VasTransaction, error) {
	return nil, nil
}

type mockEventPublisherForWallet struct {
	publishedEvents []events.DomainEvent
	publishFunc     func(ctx context.Context, event events.DomainEvent) error
}

func (m *mockEventPublisherForWallet) Publish(ctx context.Context, event events.DomainEvent) error {
	m.publishedEvents = append(m.publishedEvents, event)
	if m.publishFunc != nil {
		return m.publishFunc(ctx, event)
	}
	return nil
}

func (m *mockEventPublisherForWallet) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	m.publishedEvents = append(m.publishedEvents, evts...)
	return nil
}
