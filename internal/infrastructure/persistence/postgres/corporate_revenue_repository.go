// Package postgres - CorporateRevenueRepository implementation (§4.6 steps d-f).
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/domain/entities"
	"github.com/ficore/vaswallet/internal/domain/valueobjects"
)

// Compile-time check
var _ ports.CorporateRevenueRepository = (*CorporateRevenueRepository)(nil)

// CorporateRevenueRepository реализует ports.CorporateRevenueRepository.
type CorporateRevenueRepository struct {
	pool *pgxpool.Pool
}

// NewCorporateRevenueRepository создаёт новый CorporateRevenueRepository.
func NewCorporateRevenueRepository(pool *pgxpool.Pool) *CorporateRevenueRepository {
	return &CorporateRevenueRepository{pool: pool}
}

func (r *CorporateRevenueRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const corporateRevenueColumns = `id, transaction_id, entry_type, amount_minor_units, description, created_at`

// Save сохраняет запись о доходе/расходе. Append-only - записи не обновляются.
func (r *CorporateRevenueRepository) Save(ctx context.Context, entry *entities.CorporateRevenueEntry) error {
	q := r.getQuerier(ctx)

	query := `
		INSERT INTO corporate_revenue_entries (
			id, transaction_id, entry_type, amount_minor_units, description, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := q.Exec(ctx, query,
		entry.ID(), entry.TransactionID(), string(entry.Type()), entry.Amount().MinorUnits(),
		entry.Description(), entry.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to save corporate revenue entry: %w", err)
	}
	return nil
}

func scanCorporateRevenueEntry(scanner interface{ Scan(dest ...any) error }) (*entities.CorporateRevenueEntry, error) {
	var (
		id, transactionID uuid.UUID
		entryType         string
		amountMinor       int64
		description       string
		createdAt         time.Time
	)

	err := scanner.Scan(&id, &transactionID, &entryType, &amountMinor, &description, &createdAt)
	if err != nil {
		return nil, err
	}

	amount, err := valueobjects.NewMoneyFromMinorUnits(amountMinor, valueobjects.NGN)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount: %w", err)
	}

	return entities.ReconstructCorporateRevenueEntry(
		id, transactionID, entities.RevenueEntryType(entryType), amount, description, createdAt,
	), nil
}

// FindByTransactionID возвращает все записи о доходе, привязанные к
// конкретной VasTransaction (обычно одна строка на коммиссию, плюс реферальный
// payout если применимо, §4.6g).
func (r *CorporateRevenueRepository) FindByTransactionID(ctx context.Context, transactionID uuid.UUID) ([]*entities.CorporateRevenueEntry, error) {
	q := r.getQuerier(ctx)
	query := `SELECT ` + corporateRevenueColumns + ` FROM corporate_revenue_entries WHERE transaction_id = $1 ORDER BY created_at ASC`

	rows, err := q.Query(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("failed to find corporate revenue entries: %w", err)
	}
	defer rows.Close()

	var entries []*entities.CorporateRevenueEntry
	for rows.Next() {
		entry, err := scanCorporateRevenueEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan corporate revenue entry row: %w", err)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating corporate revenue entry rows: %w", err)
	}

	return entries, nil
}
