// Package wallet содержит use cases для работы с кошельками.
package wallet

import (
	"context"
	"fmt"

	"github.com/ficore/vaswallet/internal/application/dtos"
	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/domain/entities"
	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/google/uuid"
)

// CreateWalletUseCase - use case для создания нового кошелька (§6 POST /wallet/create).
//
// Сценарий:
// 1. Загрузить пользователя
// 2. Проверить, что у пользователя ещё нет кошелька (ровно один кошелёк на пользователя)
// 3. Создать кошелёк через domain entity
// 4. Сохранить в БД
//
// Резервный счёт у провайдера фандинга выпускается отдельным шагом
// (infrastructure-коллаборатор вызывает SetAccountReference после успешного
// ответа провайдера), а не здесь — создание кошелька само по себе не зависит
// от доступности внешнего провайдера.
type CreateWalletUseCase struct {
	userRepo   ports.UserRepository
	walletRepo ports.WalletRepository
	uow        ports.UnitOfWork
}

// NewCreateWalletUseCase создаёт новый use case.
func NewCreateWalletUseCase(
	userRepo ports.UserRepository,
	walletRepo ports.WalletRepository,
	uow ports.UnitOfWork,
) *CreateWalletUseCase {
	return &CreateWalletUseCase{
		userRepo:   userRepo,
		walletRepo: walletRepo,
		uow:        uow,
	}
}

// Execute выполняет создание кошелька.
func (uc *CreateWalletUseCase) Execute(ctx context.Context, cmd dtos.CreateWalletCommand) (*dtos.WalletDTO, error) {
	var result *dtos.WalletDTO

	err := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		userID, err := uuid.Parse(cmd.UserID)
		if err != nil {
			return errors.ValidationError{
				Field:   "user_id",
				Message: "invalid UUID format",
			}
		}

		if _, err := uc.userRepo.FindByID(txCtx, userID); err != nil {
			if errors.IsNotFound(err) {
				return errors.NewDomainError("USER_NOT_FOUND", "user not found", err)
			}
			return fmt.Errorf("failed to load user: %w", err)
		}

		existing, err := uc.walletRepo.FindByUserID(txCtx, userID)
		if err != nil && !errors.IsNotFound(err) {
			return fmt.Errorf("failed to check wallet existence: %w", err)
		}
		if existing != nil {
			return errors.NewBusinessRuleViolation(
				"WALLET_ALREADY_EXISTS",
				"a wallet already exists for this user",
				map[string]interface{}{"user_id": userID.String()},
			)
		}

		wallet, err := entities.NewWallet(userID)
		if err != nil {
			return fmt.Errorf("failed to create wallet entity: %w", err)
		}

		if err := uc.walletRepo.Save(txCtx, wallet); err != nil {
			return fmt.Errorf("failed to save wallet: %w", err)
		}

		dto := dtos.ToWalletDTO(wallet)
		result = &dto
		return nil
	})

	if err != nil {
		return nil, err
	}

	return result, nil
}
