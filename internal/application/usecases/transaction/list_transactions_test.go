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

func TestListTransactionsUseCase_Success(t *testing.T) {
	userID := uuid.New()
	tx := newTestTx(t, userID, "req-1", "ref-1")
	repo := &mockTxRepo{transactions: []*entities.VasTransaction{tx}}
	useCase := NewListTransactionsUseCase(repo)

	result, err := useCase.Execute(context.Background(), dtos.ListTransactionsQuery{
		UserID: userID.String(),
		Offset: 0,
		Limit:  20,
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Len(t, result.Transactions, 1)
	assert.Equal(t, "ref-1", result.Transactions[0].TransactionReference)
}

func TestListTransactionsUseCase_InvalidUserID(t *testing.T) {
	useCase := NewListTransactionsUseCase(&mockTxRepo{})

	result, err := useCase.Execute(context.Background(), dtos.ListTransactionsQuery{UserID: "not-a-uuid"})

	require.Error(t, err)
	assert.Nil(t, result)
}

func TestListTransactionsUseCase_DefaultsLimit(t *testing.T) {
	userID := uuid.New()
	tx := newTestTx(t, userID, "req-2", "ref-2")
	useCase := NewListTransactionsUseCase(&mockTxRepo{transactions: []*entities.VasTransaction{tx}})

	result, err := useCase.Execute(context.Background(), dtos.ListTransactionsQuery{UserID: userID.String()})

	require.NoError(t, err)
	assert.Equal(t, 20, result.Limit)
}
