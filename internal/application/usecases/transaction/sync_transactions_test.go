package transaction

import (
	"context"
	"testing"

	"github.com/ficore/vaswallet/internal/application/dtos"
	"github.com/ficore/vaswallet/internal/domain/entities"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncTransactionsUseCase_ReturnsOnlyUnknown(t *testing.T) {
	userID := uuid.New()
	known := newTestTx(t, userID, "req-1", "ref-known")
	fresh := newTestTx(t, userID, "req-2", "ref-fresh")
	repo := &mockTxRepo{transactions: []*entities.VasTransaction{known, fresh}}
	useCase := NewSyncTransactionsUseCase(repo)

	result, err := useCase.Execute(context.Background(), dtos.SyncTransactionsCommand{
		UserID:               userID.String(),
		KnownTransactionRefs: []string{"ref-known"},
	})

	require.NoError(t, err)
	require.Len(t, result.Transactions, 1)
	assert.Equal(t, "ref-fresh", result.Transactions[0].TransactionReference)
}

func TestSyncTransactionsUseCase_AllKnownReturnsEmpty(t *testing.T) {
	userID := uuid.New()
	tx := newTestTx(t, userID, "req-1", "ref-1")
	repo := &mockTxRepo{transactions: []*entities.VasTransaction{tx}}
	useCase := NewSyncTransactionsUseCase(repo)

	result, err := useCase.Execute(context.Background(), dtos.SyncTransactionsCommand{
		UserID:               userID.String(),
		KnownTransactionRefs: []string{"ref-1"},
	})

	require.NoError(t, err)
	assert.Empty(t, result.Transactions)
}

func TestSyncTransactionsUseCase_InvalidUserID(t *testing.T) {
	useCase := NewSyncTransactionsUseCase(&mockTxRepo{})

	result, err := useCase.Execute(context.Background(), dtos.SyncTransactionsCommand{UserID: "bad"})

	require.Error(t, err)
	assert.Nil(t, result)
}
