// Package postgres - ReservationRepository implementation (§4.2).
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

// Compile-time check
var _ ports.ReservationRepository = (*ReservationRepository)(nil)

// ReservationRepository реализует ports.ReservationRepository.
type ReservationRepository struct {
	pool *pgxpool.Pool
}

// NewReservationRepository создаёт новый ReservationRepository.
func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const reservationColumns = `
	id, wallet_id, transaction_id, amount_minor_units, status,
	created_at, updated_at, settled_at
`

// Save сохраняет резервацию (UPSERT - Hold вставляет, Commit/Release обновляют).
func (r *ReservationRepository) Save(ctx context.Context, res *entities.Reservation) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO reservations (
			id, wallet_id, transaction_id, amount_minor_units, status,
			created_at, updated_at, settled_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at,
			settled_at = EXCLUDED.settled_at
	`

	_, err := q.Exec(ctx, query,
		res.ID(), res.WalletID(), res.TransactionID(), res.Amount().MinorUnits(), string(res.Status()),
		res.CreatedAt(), res.UpdatedAt(), res.SettledAt(),
	)
	if err != nil {
		if isUniqueViolation(err, "reservations_transaction_id_unique") {
			return domainErrors.NewBusinessRuleViolation(
				"RESERVATION_ALREADY_EXISTS",
				fmt.Sprintf("a reservation already exists for transaction %s", res.TransactionID()),
				map[string]interface{}{"transaction_id": res.TransactionID().String()},
			)
		}
		return fmt.Errorf("failed to save reservation: %w", err)
	}
	return nil
}

func scanReservation(scanner interface{ Scan(dest ...any) error }) (*entities.Reservation, error) {
	var (
		id, walletID, transactionID uuid.UUID
		amountMinor                 int64
		status                      string
		createdAt, updatedAt        time.Time
		settledAt                  *time.Time
	)

	err := scanner.Scan(&id, &walletID, &transactionID, &amountMinor, &status, &createdAt, &updatedAt, &settledAt)
	if err != nil {
		return nil, err
	}

	amount, err := valueobjects.NewMoneyFromMinorUnits(amountMinor, valueobjects.NGN)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount: %w", err)
	}

	return entities.ReconstructReservation(
		id, walletID, transactionID, amount, entities.ReservationStatus(status),
		createdAt, updatedAt, settledAt,
	), nil
}

// FindByID загружает резервацию по ID.
func (r *ReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Reservation, error) {
	q := r.getQuerier(ctx)
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`

	res, err := scanReservation(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find reservation by id: %w", err)
	}
	return res, nil
}

// FindByTransactionID находит резервацию, связанную с конкретной VasTransaction.
func (r *ReservationRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) (*entities.Reservation, error) {
	q := r.getQuerier(ctx)
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE transaction_id = $1`

	res, err := scanReservation(q.QueryRow(ctx, query, transactionID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find reservation by transaction_id: %w", err)
	}
	return res, nil
}

// FindExpiredHeld возвращает HELD-резервации старше olderThan без разрешения,
// для периодического sweep'а (§4.1).
func (r *ReservationRepository) FindExpiredHeld(ctx context.Context, olderThan time.Time, limit int) ([]*entities.Reservation, error) {
	q := r.getQuerier(ctx)
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE status = 'HELD' AND created_at < $1
		ORDER BY created_at ASC
		LIMIT $2
	`

	rows, err := q.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired held reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*entities.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan reservation row: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reservation rows: %w", err)
	}

	return reservations, nil
}
