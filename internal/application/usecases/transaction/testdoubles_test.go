package transaction

import (
	"context"

	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/domain/entities"
	domainerrors "github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/google/uuid"
)

type mockTxRepo struct {
	transactions []*entities.VasTransaction
}

func (m *mockTxRepo) Save(ctx context.Context, tx *entities.VasTransaction) error { return nil }

func (m *mockTxRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.VasTransaction, error) {
	return nil, domainerrors.ErrEntityNotFound
}

func (m *mockTxRepo) FindByRequestID(ctx context.Context, userID uuid.UUID, requestID string) (*entities.VasTransaction, error) {
	return nil, domainerrors.ErrEntityNotFound
}

func (m *mockTxRepo) FindByTransactionReference(ctx context.Context, reference string) (*entities.VasTransaction, error) {
	return nil, domainerrors.ErrEntityNotFound
}

func (m *mockTxRepo) FindRecentSuccess(ctx context.Context, userID uuid.UUID, txType entities.VasTransactionType, amount valueobjects.Money, phoneNumber string, windowMinutes int) (*entities.VasTransaction, error) {
	return nil, domainerrors.ErrEntityNotFound
}

func (m *mockTxRepo) FindInFlight(ctx context.Context, userID uuid.UUID, txType entities.VasTransactionType, amount valueobjects.Money, phoneNumber string, windowMinutes int) (*entities.VasTransaction, error) {
	return nil, domainerrors.ErrEntityNotFound
}

func (m *mockTxRepo) List(ctx context.Context, filter ports.VasTransactionFilter, offset, limit int) ([]*entities.VasTransaction, error) {
	return m.transactions, nil
}

func newTestTx(t interface {
	Helper()
	Fatalf(string, ...interface{})
}, userID uuid.UUID, requestID, reference string) *entities.VasTransaction {
	t.Helper()
	amount, err := valueobjects.NewMoney("100.00", valueobjects.NGN)
	if err != nil {
		t.Fatalf("build money: %v", err)
	}
	tx, err := entities.NewVasTransaction(userID, entities.VasTransactionTypeAirtime, "MTN", amount, amount, amount, requestID)
	if err != nil {
		t.Fatalf("build tx: %v", err)
	}
	if err := tx.MarkPending(); err != nil {
		t.Fatalf("mark pending: %v", err)
	}
	zero := valueobjects.Zero(valueobjects.NGN)
	if err := tx.MarkSuccess(reference, zero, zero, 0, zero, zero); err != nil {
		t.Fatalf("mark success: %v", err)
	}
	return tx
}
