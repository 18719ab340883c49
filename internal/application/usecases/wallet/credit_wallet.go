// Package wallet - CreditWallet use case для административного зачисления
// (ADMIN_REFUND, §6 POST /admin/wallet/credit).
//
// Сценарий:
// 1. Загрузить Wallet
// 2. Проверить идемпотентность по (userId, idempotencyKey)
// 3. Создать VasTransaction(ADMIN_REFUND) по политике create-FAILED-first
// 4. Применить Credit к Wallet
// 5. Перевести транзакцию в SUCCESS
// 6. Сохранить оба агрегата и опубликовать события
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

// CreditWalletUseCase - use case для административного зачисления средств.
type CreditWalletUseCase struct {
	walletRepo     ports.WalletRepository
	vasTxRepo      ports.VasTransactionRepository
	eventPublisher ports.EventPublisher
	uow            ports.UnitOfWork
}

// NewCreditWalletUseCase создаёт новый use case.
func NewCreditWalletUseCase(
	walletRepo ports.WalletRepository,
	vasTxRepo ports.VasTransactionRepository,
	eventPublisher ports.EventPublisher,
	uow ports.UnitOfWork,
) *CreditWalletUseCase {
	return &CreditWalletUseCase{
		walletRepo:     walletRepo,
		vasTxRepo:      vasTxRepo,
		eventPublisher: eventPublisher,
		uow:            uow,
	}
}

// Execute выполняет административное зачисление средств на кошелёк.
func (uc *CreditWalletUseCase) Execute(ctx context.Context, cmd dtos.AdminCreditCommand) (*dtos.WalletOperationDTO, error) {
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
			entities.VasTransactionTypeAdminRefund,
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

		if err := wallet.Credit(amount); err != nil {
			return fmt.Errorf("failed to credit wallet: %w", err)
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

		eventList := []events.DomainEvent{
			events.NewWalletFunded(walletID, amount, tx.ID(), wallet.Balance()),
			events.NewVasTransactionSucceeded(tx.ID(), wallet.UserID(), string(entities.VasTransactionTypeAdminRefund), amount),
		}
		if err := uc.eventPublisher.PublishBatch(txCtx, eventList); err != nil {
			return fmt.Errorf("failed to publish events: %w", err)
		}

		result = uc.buildResult(wallet, tx)
		return nil
	})

	if err != nil {
		return nil, err
	}
	return result, nil
}

func (uc *CreditWalletUseCase) buildResult(wallet *entities.Wallet, tx *entities.VasTransaction) *dtos.WalletOperationDTO {
	return &dtos.WalletOperationDTO{
		Wallet:        dtos.ToWalletDTO(wallet),
		TransactionID: tx.ID().String(),
		Message:       fmt.Sprintf("wallet credited with %s", tx.Amount().DecimalString()),
	}
}
