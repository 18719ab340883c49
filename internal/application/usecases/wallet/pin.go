// Package wallet - PIN use cases implementing the spending-PIN lifecycle
// (§4.9): first-time setup, validation before a spend, self-service change,
// and administrative reset with an audit trail.
package wallet

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/ficore/vaswallet/internal/application/dtos"
	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/domain/entities"
	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/google/uuid"
)

const pinSaltSize = 16

func newPinSalt() ([]byte, error) {
	salt := make([]byte, pinSaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate PIN salt: %w", err)
	}
	return salt, nil
}

func parseWalletID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, errors.ValidationError{Field: "wallet_id", Message: "invalid UUID"}
	}
	return id, nil
}

func loadWallet(ctx context.Context, repo ports.WalletRepository, walletID uuid.UUID) (*entities.Wallet, error) {
	wallet, err := repo.FindByID(ctx, walletID)
	if err != nil {
		if errors.IsNotFound(err) {
			return nil, errors.NewDomainError("WALLET_NOT_FOUND", "wallet not found", err)
		}
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	return wallet, nil
}

// SetupPinUseCase sets a wallet's spending PIN for the first time.
type SetupPinUseCase struct {
	walletRepo ports.WalletRepository
	uow        ports.UnitOfWork
}

// NewSetupPinUseCase создаёт новый use case.
func NewSetupPinUseCase(walletRepo ports.WalletRepository, uow ports.UnitOfWork) *SetupPinUseCase {
	return &SetupPinUseCase{walletRepo: walletRepo, uow: uow}
}

// Execute устанавливает PIN впервые.
func (uc *SetupPinUseCase) Execute(ctx context.Context, cmd dtos.SetupPinCommand) (*dtos.WalletDTO, error) {
	var result *dtos.WalletDTO

	err := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		walletID, err := parseWalletID(cmd.WalletID)
		if err != nil {
			return err
		}

		wallet, err := loadWallet(txCtx, uc.walletRepo, walletID)
		if err != nil {
			return err
		}

		salt, err := newPinSalt()
		if err != nil {
			return err
		}

		if err := wallet.SetPin(cmd.Pin, salt); err != nil {
			return err
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

// ValidatePinUseCase checks a supplied PIN without mutating wallet balance -
// it backs the standalone pre-validation endpoint. The Purchase Orchestrator
// does not use it; it calls Wallet.ValidatePin on its own loaded wallet.
type ValidatePinUseCase struct {
	walletRepo ports.WalletRepository
	uow        ports.UnitOfWork
}

// NewValidatePinUseCase создаёт новый use case.
func NewValidatePinUseCase(walletRepo ports.WalletRepository, uow ports.UnitOfWork) *ValidatePinUseCase {
	return &ValidatePinUseCase{walletRepo: walletRepo, uow: uow}
}

// Execute проверяет PIN-код кошелька.
func (uc *ValidatePinUseCase) Execute(ctx context.Context, cmd dtos.ValidatePinCommand) error {
	return uc.uow.Execute(ctx, func(txCtx context.Context) error {
		walletID, err := parseWalletID(cmd.WalletID)
		if err != nil {
			return err
		}

		wallet, err := loadWallet(txCtx, uc.walletRepo, walletID)
		if err != nil {
			return err
		}

		validateErr := wallet.ValidatePin(cmd.Pin)

		if saveErr := uc.walletRepo.Save(txCtx, wallet); saveErr != nil {
			return fmt.Errorf("failed to save wallet: %w", saveErr)
		}

		return validateErr
	})
}

// ChangePinUseCase replaces an existing PIN after verifying the current one.
type ChangePinUseCase struct {
	walletRepo ports.WalletRepository
	uow        ports.UnitOfWork
}

// NewChangePinUseCase создаёт новый use case.
func NewChangePinUseCase(walletRepo ports.WalletRepository, uow ports.UnitOfWork) *ChangePinUseCase {
	return &ChangePinUseCase{walletRepo: walletRepo, uow: uow}
}

// Execute меняет PIN-код кошелька.
func (uc *ChangePinUseCase) Execute(ctx context.Context, cmd dtos.ChangePinCommand) (*dtos.WalletDTO, error) {
	var result *dtos.WalletDTO

	err := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		walletID, err := parseWalletID(cmd.WalletID)
		if err != nil {
			return err
		}

		wallet, err := loadWallet(txCtx, uc.walletRepo, walletID)
		if err != nil {
			return err
		}

		newSalt, err := newPinSalt()
		if err != nil {
			return err
		}

		if err := wallet.ChangePin(cmd.CurrentPin, cmd.NewPin, newSalt); err != nil {
			if saveErr := uc.walletRepo.Save(txCtx, wallet); saveErr != nil {
				return fmt.Errorf("failed to save wallet: %w", saveErr)
			}
			return err
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

// AdminResetPinUseCase clears a wallet's PIN out of band and records an
// audit trail (§4.9).
type AdminResetPinUseCase struct {
	walletRepo   ports.WalletRepository
	pinAuditRepo ports.PinAuditRepository
	uow          ports.UnitOfWork
}

// NewAdminResetPinUseCase создаёт новый use case.
func NewAdminResetPinUseCase(
	walletRepo ports.WalletRepository,
	pinAuditRepo ports.PinAuditRepository,
	uow ports.UnitOfWork,
) *AdminResetPinUseCase {
	return &AdminResetPinUseCase{walletRepo: walletRepo, pinAuditRepo: pinAuditRepo, uow: uow}
}

// Execute выполняет административный сброс PIN-кода.
func (uc *AdminResetPinUseCase) Execute(ctx context.Context, cmd dtos.AdminResetPinCommand) (*dtos.WalletDTO, error) {
	var result *dtos.WalletDTO

	err := uc.uow.Execute(ctx, func(txCtx context.Context) error {
		walletID, err := parseWalletID(cmd.WalletID)
		if err != nil {
			return err
		}
		adminID, err := uuid.Parse(cmd.AdminID)
		if err != nil {
			return errors.ValidationError{Field: "admin_id", Message: "invalid UUID"}
		}

		wallet, err := loadWallet(txCtx, uc.walletRepo, walletID)
		if err != nil {
			return err
		}

		wallet.AdminResetPin()

		audit, err := entities.NewPinAuditRecord(walletID, adminID, cmd.Reason)
		if err != nil {
			return err
		}

		if err := uc.walletRepo.Save(txCtx, wallet); err != nil {
			return fmt.Errorf("failed to save wallet: %w", err)
		}
		if err := uc.pinAuditRepo.Save(txCtx, audit); err != nil {
			return fmt.Errorf("failed to save PIN audit record: %w", err)
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
