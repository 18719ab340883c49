// Package postgres - WalletRepository implementation.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/domain/entities"
	domainErrors "github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
)

// Compile-time check: WalletRepository implements ports.WalletRepository
var _ ports.WalletRepository = (*WalletRepository)(nil)

// WalletRepository реализует ports.WalletRepository с использованием PostgreSQL.
//
// Thread-safe: использует connection pool.
// Transaction-aware: автоматически использует транзакцию из context если есть.
//
// Optimistic concurrency: Save проверяет version при UPDATE (WHERE version = $N)
// и возвращает *errors.ConcurrencyError при несовпадении, как того требует
// ports.WalletRepository.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository создаёт новый WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

func (r *WalletRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const walletColumns = `
	id, user_id, balance_minor_units, reserved_amount_minor_units, version,
	account_reference, accounts, status,
	pin_hash, pin_salt, pin_attempts, pin_locked_until,
	created_at, updated_at
`

// scanWallet сканирует строку в domain entity Wallet.
func scanWallet(scanner interface{ Scan(dest ...any) error }) (*entities.Wallet, error) {
	var (
		id, userID                           uuid.UUID
		balanceMinorUnits, reservedMinorUnits int64
		version                               int64
		accountReference                      string
		accounts                              []string
		status                                string
		pinHash, pinSalt                      []byte
		pinAttempts                           int
		pinLockedUntil                        time.Time
		createdAt, updatedAt                  time.Time
	)

	err := scanner.Scan(
		&id, &userID, &balanceMinorUnits, &reservedMinorUnits, &version,
		&accountReference, &accounts, &status,
		&pinHash, &pinSalt, &pinAttempts, &pinLockedUntil,
		&createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	balance, err := valueobjects.NewMoneyFromMinorUnits(balanceMinorUnits, valueobjects.NGN)
	if err != nil {
		return nil, fmt.Errorf("invalid stored balance: %w", err)
	}
	reserved, err := valueobjects.NewMoneyFromMinorUnits(reservedMinorUnits, valueobjects.NGN)
	if err != nil {
		return nil, fmt.Errorf("invalid stored reserved amount: %w", err)
	}

	return entities.ReconstructWallet(
		id, userID,
		balance, reserved,
		version,
		accountReference,
		accounts,
		entities.WalletStatus(status),
		pinHash, pinSalt,
		pinAttempts,
		pinLockedUntil,
		createdAt, updatedAt,
	), nil
}

// Save сохраняет кошелёк: INSERT для новых (version == 0), UPDATE с
// optimistic-concurrency проверкой для существующих.
func (r *WalletRepository) Save(ctx context.Context, wallet *entities.Wallet) error {
	q := r.getQuerier(ctx)

	if wallet.Version() == 0 {
		return r.insert(ctx, q, wallet)
	}
	return r.update(ctx, q, wallet)
}

func (r *WalletRepository) insert(ctx context.Context, q querier, wallet *entities.Wallet) error {
	query := `
		INSERT INTO wallets (
			id, user_id, balance_minor_units, reserved_amount_minor_units, version,
			account_reference, accounts, status,
			pin_hash, pin_salt, pin_attempts, pin_locked_until,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := q.Exec(ctx, query,
		wallet.ID(),
		wallet.UserID(),
		wallet.Balance().MinorUnits(),
		wallet.ReservedAmount().MinorUnits(),
		wallet.Version(),
		wallet.AccountReference(),
		wallet.Accounts(),
		string(wallet.Status()),
		nullableBytes(wallet),
		nullableSalt(wallet),
		wallet.PinAttempts(),
		wallet.PinLockedUntil(),
		wallet.CreatedAt(),
		wallet.UpdatedAt(),
	)
	if err != nil {
		if isUniqueViolation(err, "wallets_user_id_unique") {
			return domainErrors.NewBusinessRuleViolation(
				"WALLET_ALREADY_EXISTS",
				fmt.Sprintf("wallet for user %s already exists", wallet.UserID()),
				map[string]interface{}{"user_id": wallet.UserID().String()},
			)
		}
		return fmt.Errorf("failed to insert wallet: %w", err)
	}
	return nil
}

func (r *WalletRepository) update(ctx context.Context, q querier, wallet *entities.Wallet) error {
	query := `
		UPDATE wallets SET
			balance_minor_units = $1,
			reserved_amount_minor_units = $2,
			version = $3,
			account_reference = $4,
			accounts = $5,
			status = $6,
			pin_hash = $7,
			pin_salt = $8,
			pin_attempts = $9,
			pin_locked_until = $10,
			updated_at = $11
		WHERE id = $12 AND version = $13
	`

	tag, err := q.Exec(ctx, query,
		wallet.Balance().MinorUnits(),
		wallet.ReservedAmount().MinorUnits(),
		wallet.Version(),
		wallet.AccountReference(),
		wallet.Accounts(),
		string(wallet.Status()),
		nullableBytes(wallet),
		nullableSalt(wallet),
		wallet.PinAttempts(),
		wallet.PinLockedUntil(),
		wallet.UpdatedAt(),
		wallet.ID(),
		wallet.Version()-1,
	)
	if err != nil {
		return fmt.Errorf("failed to update wallet: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domainErrors.NewConcurrencyError("Wallet", wallet.ID().String(), "wallet was modified by another transaction")
	}
	return nil
}

// nullableBytes/nullableSalt avoid persisting a zero-length (non-nil) slice
// when a wallet has no PIN set yet - pgx would otherwise write an empty
// bytea instead of NULL.
func nullableBytes(wallet *entities.Wallet) []byte {
	if !wallet.PinSet() {
		return nil
	}
	return wallet.PinHash()
}

func nullableSalt(wallet *entities.Wallet) []byte {
	if !wallet.PinSet() {
		return nil
	}
	return wallet.PinSalt()
}

// FindByID загружает кошелёк по ID.
func (r *WalletRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE id = $1`

	wallet, err := scanWallet(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find wallet by id: %w", err)
	}
	return wallet, nil
}

// FindByUserID находит единственный кошелёк пользователя.
func (r *WalletRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + walletColumns + ` FROM wallets WHERE user_id = $1`

	wallet, err := scanWallet(q.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find wallet by user_id: %w", err)
	}
	return wallet, nil
}

// FindByAccountReference ищет кошелёк по virtual-account reference - первый
// шаг резолюции пользователя в вебхуке пополнения (§4.7). accounts хранит
// всю историю выданных reserved-account номеров, поэтому поиск проверяет и
// текущий account_reference, и массив accounts.
func (r *WalletRepository) FindByAccountReference(ctx context.Context, accountReference string) (*entities.Wallet, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + walletColumns + `
		FROM wallets
		WHERE account_reference = $1 OR $1 = ANY(accounts)
	`

	wallet, err := scanWallet(q.QueryRow(ctx, query, accountReference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find wallet by account_reference: %w", err)
	}
	return wallet, nil
}
