// Package wallet - DebitWallet use case для административного списания
// (ADMIN_DEDUCTION, §6 POST /admin/wallet/debit).
package wallet

import (
	"context"
	"fmt"

	"github.com/ficore/vaswallet/internal/application/dtos"
	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/domain/entities"
	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/events"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/google/uuid"
)

// DebitWalletUseCase - use case для административного списания средств.
type DebitWalletUseCase struct {
	walletRepo     ports.WalletRepository
	vasTxRepo      ports.VasTransactionRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewDebitWalletUseCase создаёт новый use case.
func NewDebitWalletUseCase(
	walletRepo ports.WalletRepository,
	vasTxRepo ports.VasTransactionRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *DebitWalletUseCase {
	return &DebitWalletUseCase{
		walletRepo:     walletRepo,
		vasTxRepo:      vasTxRepo,
		eventPublisher: eventPublisher,
		uow:            uow,
	}
}

// Execute выполняет административное списание средств с кошелька.
func (uc *DebitWalletUseCase) Execute(ctx context.Context, cmd dtos.AdminDebitCommand) (*dtos.WalletOperationDTO, error) {
	var result *dtos.WalletOperationDTO

	err := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		walletID, err := uuid.Parse(cmd.WalletID)
		if err != nil {
			return errors.ValidationError{Field: "wallet_id", Message: "invalid UUID"}
		}

		wallet, err := uc.walletRepo.FindByID(txCtx, walletID)
		if err != nil {
			if errors.IsNotFound(err) {
				return errors.NewDomainError("WALLET_NOT_FOUND", "wallet not found", err)
			}
			return fmt.Errorf("failed to load wallet: %w", err)
		}

		existingTx, err := uc.vasTxRepo.FindByRequestID(txCtx, wallet.UserID(), cmd.IdempotencyKey)
		if err != nil && !errors.IsNotFound(err) {
			return fmt.Errorf("failed to check idempotency key: %w", err)
		}
		if existingTx != nil {
			result = uc.buildResult(wallet, existingTx)
			return nil
		}

		amount, err := valueobjects.NewMoney(cmd.Amount, valueobjects.NGN)
		if err != nil {
			return errors.ValidationError{Field: "amount", Message: fmt.Sprintf("invalid amount: %v", err)}
		}

		tx, err := entities.NewVasTransaction(
			wallet.UserID(),
			entities.VasTransactionTypeAdminDeduction,
			cmd.Reason,
			amount, amount, amount,
			cmd.IdempotencyKey,
		)
		if err != nil {
			return fmt.Errorf("failed to create transaction entity: %w", err)
		}

		if err := tx.MarkPending(); err != nil {
			return fmt.Errorf("failed to start transaction: %w", err)
		}

		if err := wallet.Debit(amount); err != nil {
			return fmt.Errorf("failed to debit wallet: %w", err)
		}

		zero := valueobjects.Zero(valueobjects.NGN)
		if err := tx.MarkSuccess(cmd.IdempotencyKey, zero, zero, 0, zero, zero); err != nil {
			return fmt.Errorf("failed to complete transaction: %w", err)
		}

		if err := uc.walletRepo.Save(txCtx, wallet); err != nil {
			if errors.IsConcurrencyError(err) {
				return errors.NewConcurrencyError("Wallet", walletID.String(), "wallet was modified by another transaction")
			}
			return fmt.Errorf("failed to save wallet: %w", err)
		}
		if err := uc.vasTxRepo.Save(txCtx, tx); err != nil {
			return fmt.Errorf("failed to save transaction: %w", err)
		}

		evt := events.NewVasTransactionSucceeded(tx.ID(), wallet.UserID(), string(entities.VasTransactionTypeAdminDeduction), amount)
		if err := uc.eventPublisher.Publish(txCtx, evt); err != nil {
			return fmt.Errorf("failed to publish event: %w", err)
		}

		result = uc.buildResult(wallet, tx)
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *DebitWalletUseCase) buildResult(wallet *entities.Wallet, tx *entities.VasTransaction) *dtos.WalletOperationDTO {
	return &dtos.WalletOperationDTO{
		Wallet:        dtos.ToWalletDTO(wallet),
		TransactionID: tx.ID().String(),
		Message:       fmt.Sprintf("wallet debited with %s", tx.Amount().DecimalString()),
	}
}
