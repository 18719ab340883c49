package wallet

import (
	"context"
	"testing"

	"github.com/ficore/vaswallet/internal/application/dtos"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDebitWalletUseCase_Success(t *testing.T) {
	ctx := context.Background()
	wallet, _ := newTestWallet(t)

	funding, err := valueobjects.NewMoneyFromInt(1000, valueobjects.NGN)
	require.NoError(t, err)
	require.NoError(t, wallet.Credit(funding))

	walletRepo := &mockWalletRepoForCredit{wallet: wallet}
	vasTxRepo := &mockVasTransactionRepo{}
	eventPublisher := &mockEventPublisherForWallet{}

	useCase := NewDebitWalletUseCase(walletRepo, vasTxRepo, eventPublisher, &mockUoWForWallet{})

	result, err := useCase.Execute(ctx, dtos.AdminDebitCommand{
		WalletID:       wallet.ID().String(),
		Amount:         "300.00",
		IdempotencyKey: "admin-debit-1",
		Reason:         "correction",
	})

	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, "700.00", result.Wallet.Balance)
	assert.Len(t, eventPublisher.publishedEvents, 1)
}

func TestDebitWalletUseCase_InsufficientFunds(t *testing.T) {
	ctx := context.Background()
	wallet, _ := newTestWallet(t)

	walletRepo := &mockWalletRepoForCredit{wallet: wallet}
	vasTxRepo := &mockVasTransactionRepo{}
	eventPublisher := &mockEventPublisherForWallet{}

	useCase := NewDebitWalletUseCase(walletRepo, vasTxRepo, eventPublisher, &mockUoWForWallet{})

	result, err := useCase.Execute(ctx, dtos.AdminDebitCommand{
		WalletID:       wallet.ID().String(),
		Amount:         "300.00",
		IdempotencyKey: "admin-debit-2",
		Reason:         "correction",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Empty(t, eventPublisher.publishedEvents)
}
