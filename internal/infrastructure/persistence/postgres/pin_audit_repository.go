// Package postgres - PinAuditRepository implementation (§4.9).
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/domain/entities"
)

// Compile-time check
var _ ports.PinAuditRepository = (*PinAuditRepository)(nil)

// PinAuditRepository реализует ports.PinAuditRepository.
type PinAuditRepository struct {
	pool *pgxpool.Pool
}

// NewPinAuditRepository создаёт новый PinAuditRepository.
func NewPinAuditRepository(pool *pgxpool.Pool) *PinAuditRepository {
	return &PinAuditRepository{pool: pool}
}

func (r *PinAuditRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const pinAuditColumns = `id, wallet_id, admin_id, reason, created_at`

// Save записывает аудит-строку административного сброса PIN-кода.
func (r *PinAuditRepository) Save(ctx context.Context, record *entities.PinAuditRecord) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO pin_audit_records (id, wallet_id, admin_id, reason, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := q.Exec(ctx, query, record.ID(), record.WalletID(), record.AdminID(), record.Reason(), record.CreatedAt())
	if err != nil {
		return fmt.Errorf("failed to save pin audit record: %w", err)
	}
	return nil
}

// FindByWalletID возвращает историю сбросов PIN-кода для кошелька с пагинацией.
func (r *PinAuditRepository) FindByWalletID(ctx context.Context, walletID uuid.UUID, offset, limit int) ([]*entities.PinAuditRecord, error) {
	q := r.getQuerier(ctx)

	query := `
		SELECT ` + pinAuditColumns + `
		FROM pin_audit_records
		WHERE wallet_id = $1
		ORDER BY created_at DESC
		OFFSET $2 LIMIT $3
	`

	rows, err := q.Query(ctx, query, walletID, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to find pin audit records: %w", err)
	}
	defer rows.Close()

	var records []*entities.PinAuditRecord
	for rows.Next() {
		var (
			id, wID, adminID uuid.UUID
			reason           string
			createdAt        time.Time
		)
		if err := rows.Scan(&id, &wID, &adminID, &reason, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan pin audit record row: %w", err)
		}
		records = append(records, entities.ReconstructPinAuditRecord(id, wID, adminID, reason, createdAt))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating pin audit record rows: %w", err)
	}

	return records, nil
}
