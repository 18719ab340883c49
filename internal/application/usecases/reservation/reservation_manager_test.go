package reservation

import (
	"context"
	"testing"
	"time"

	"github.com/ficore/vaswallet/internal/domain/entities"
	domainErrors "github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/events"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockWalletRepo struct {
	wallet *entities.Wallet
}

func (m *mockWalletRepo) Save(ctx context.Context, wallet *entities.Wallet) error {
	m.wallet = wallet
	return nil
}

func (m *mockWalletRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	if m.wallet != nil && m.wallet.ID() == id {
		return m.wallet, nil
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockWalletRepo) FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockWalletRepo) FindByAccountReference(ctx context.Context, ref string) (*entities.Wallet, error) {
	return nil, domainErrors.ErrEntityNotFound
}

type mockReservationRepo struct {
	byTransactionID map[uuid.UUID]*entities.Reservation
}

func newMockReservationRepo() *mockReservationRepo {
	return &mockReservationRepo{byTransactionID: make(map[uuid.UUID]*entities.Reservation)}
}

func (m *mockReservationRepo) Save(ctx context.Context, res *entities.Reservation) error {
	m.byTransactionID[res.TransactionID()] = res
	return nil
}

func (m *mockReservationRepo) FindByID(ctx context.Context, id uuid.UUID) (*entities.Reservation, error) {
	for _, r := range m.byTransactionID {
		if r.ID() == id {
			return r, nil
		}
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockReservationRepo) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*entities.Reservation, error) {
	if r, ok := m.byTransactionID[transactionID]; ok {
		return r, nil
	}
	return nil, domainErrors.ErrEntityNotFound
}

func (m *mockReservationRepo) FindExpiredHeld(ctx context.Context, olderThan time.Time, limit int) ([]*entities.Reservation, error) {
	return nil, nil
}

type mockEventPublisher struct {
	events []events.DomainEvent
}

func (m *mockEventPublisher) Publish(ctx context.Context, event events.DomainEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockEventPublisher) PublishBatch(ctx context.Context, evts []events.DomainEvent) error {
	m.events = append(m.events, evts...)
	return nil
}

func setupWallet(t *testing.T, fundedAmount int64) (*entities.Wallet, *mockWalletRepo) {
	userID := uuid.New()
	wallet, err := entities.NewWallet(userID)
	require.NoError(t, err)

	if fundedAmount > 0 {
		amount, err := valueobjects.NewMoneyFromInt(fundedAmount, valueobjects.NGN)
		require.NoError(t, err)
		require.NoError(t, wallet.Credit(amount))
	}

	return wallet, &mockWalletRepo{wallet: wallet}
}

func TestManager_Hold_Success(t *testing.T) {
	ctx := context.Background()
	wallet, walletRepo := setupWallet(t, 1000)
	resRepo := newMockReservationRepo()
	pub := &mockEventPublisher{}

	mgr := NewManager(walletRepo, resRepo, pub)

	txID := uuid.New()
	amount, _ := valueobjects.NewMoneyFromInt(300, valueobjects.NGN)

	res, err := mgr.Hold(ctx, wallet.ID(), txID, amount)

	require.NoError(t, err)
	assert.True(t, res.IsHeld())
	assert.Equal(t, "300.00", wallet.ReservedAmount().DecimalString())
	assert.Len(t, pub.events, 1)
	assert.Equal(t, events.EventTypeReservationHeld, pub.events[0].EventType())
}

func TestManager_Hold_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	wallet, walletRepo := setupWallet(t, 100)
	resRepo := newMockReservationRepo()
	pub := &mockEventPublisher{}

	mgr := NewManager(walletRepo, resRepo, pub)

	amount, _ := valueobjects.NewMoneyFromInt(300, valueobjects.NGN)
	res, err := mgr.Hold(ctx, wallet.ID(), uuid.New(), amount)

	require.Error(t, err)
	assert.Nil(t, res)
}

func TestManager_Commit_DebitsWalletAndClearsReservation(t *testing.T) {
	ctx := context.Background()
	wallet, walletRepo := setupWallet(t, 1000)
	resRepo := newMockReservationRepo()
	pub := &mockEventPublisher{}

	mgr := NewManager(walletRepo, resRepo, pub)

	txID := uuid.New()
	amount, _ := valueobjects.NewMoneyFromInt(300, valueobjects.NGN)
	_, err := mgr.Hold(ctx, wallet.ID(), txID, amount)
	require.NoError(t, err)

	err = mgr.Commit(ctx, txID)
	require.NoError(t, err)

	assert.Equal(t, "700.00", wallet.Balance().DecimalString())
	assert.Equal(t, "0.00", wallet.ReservedAmount().DecimalString())

	res, _ := resRepo.FindByTransactionID(ctx, txID)
	assert.True(t, res.IsCommitted())
}

func TestManager_Commit_Idempotent(t *testing.T) {
	ctx := context.Background()
	wallet, walletRepo := setupWallet(t, 1000)
	resRepo := newMockReservationRepo()
	pub := &mockEventPublisher{}

	mgr := NewManager(walletRepo, resRepo, pub)

	txID := uuid.New()
	amount, _ := valueobjects.NewMoneyFromInt(300, valueobjects.NGN)
	_, err := mgr.Hold(ctx, wallet.ID(), txID, amount)
	require.NoError(t, err)

	require.NoError(t, mgr.Commit(ctx, txID))
	require.NoError(t, mgr.Commit(ctx, txID)) // second commit is a no-op

	assert.Equal(t, "700.00", wallet.Balance().DecimalString())
}

func TestManager_Release_ReturnsReservedFundsWithoutDebit(t *testing.T) {
	ctx := context.Background()
	wallet, walletRepo := setupWallet(t, 1000)
	resRepo := newMockReservationRepo()
	pub := &mockEventPublisher{}

	mgr := NewManager(walletRepo, resRepo, pub)

	txID := uuid.New()
	amount, _ := valueobjects.NewMoneyFromInt(300, valueobjects.NGN)
	_, err := mgr.Hold(ctx, wallet.ID(), txID, amount)
	require.NoError(t, err)

	err = mgr.Release(ctx, txID, "provider declined")
	require.NoError(t, err)

	assert.Equal(t, "1000.00", wallet.Balance().DecimalString())
	assert.Equal(t, "0.00", wallet.ReservedAmount().DecimalString())
}
