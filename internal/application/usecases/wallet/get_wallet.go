// Package wallet - GetWallet use cases для получения состояния кошелька
// (§6 GET /wallet/balance, GET /wallet/balance/current).
package wallet

import (
	"context"
	"fmt"

	"github.com/ficore/vaswallet/internal/application/dtos"
	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/google/uuid"
)

// GetWalletUseCase - use case для получения полного состояния кошелька пользователя.
type GetWalletUseCase struct {
	walletRepo ports.WalletRepository
}

// NewGetWalletUseCase создаёт новый use case.
func NewGetWalletUseCase(walletRepo ports.WalletRepository) *GetWalletUseCase {
	return &GetWalletUseCase{walletRepo: walletRepo}
}

// Execute возвращает кошелёк пользователя.
func (uc *GetWalletUseCase) Execute(ctx context.Context, query dtos.GetWalletBalanceQuery) (*dtos.WalletDTO, error) {
	userID, err := uuid.Parse(query.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}

	wallet, err := uc.walletRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: wallet for user %s", errors.ErrEntityNotFound, query.UserID)
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	dto := dtos.ToWalletDTO(wallet)
	return &dto, nil
}

// GetWalletBalanceUseCase - lightweight read for the 3-second polling
// endpoint (§6 GET /wallet/balance/current); returns only the three balance
// figures, not the full wallet representation.
type GetWalletBalanceUseCase struct {
	walletRepo ports.WalletRepository
}

// NewGetWalletBalanceUseCase создаёт новый use case.
func NewGetWalletBalanceUseCase(walletRepo ports.WalletRepository) *GetWalletBalanceUseCase {
	return &GetWalletBalanceUseCase{walletRepo: walletRepo}
}

// Execute возвращает текущий баланс кошелька пользователя.
func (uc *GetWalletBalanceUseCase) Execute(ctx context.Context, query dtos.GetWalletBalanceQuery) (*dtos.WalletBalanceDTO, error) {
	userID, err := uuid.Parse(query.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}

	wallet, err := uc.walletRepo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, fmt.Errorf("%w: wallet for user %s", errors.ErrEntityNotFound, query.UserID)
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}

	dto := dtos.ToWalletBalanceDTO(wallet)
	return &dto, nil
}
