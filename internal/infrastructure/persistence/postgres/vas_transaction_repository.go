// Package postgres - VasTransactionRepository implementation: the append-only
// ledger (§4.3) behind every wallet-funding credit and VAS purchase.
package postgres

import (
	"context"
	"encoding/json"
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
var _ ports.VasTransactionRepository = (*VasTransactionRepository)(nil)

// VasTransactionRepository реализует ports.VasTransactionRepository.
type VasTransactionRepository struct {
	pool *pgxpool.Pool
}

// NewVasTransactionRepository создаёт новый VasTransactionRepository.
func NewVasTransactionRepository(pool *pgxpool.Pool) *VasTransactionRepository {
	return &VasTransactionRepository{pool: pool}
}

func (r *VasTransactionRepository) getQuerier(ctx context.Context) querier {
	if tx := extractTx(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const vasTransactionColumns = `
	id, user_id, transaction_type, subtype, status, failure_reason,
	amount_minor_units, selling_price_minor_units, total_amount_minor_units,
	provider, network, phone_number, data_plan_id, data_plan_name,
	request_id, transaction_reference,
	provider_cost_minor_units, provider_commission_minor_units, provider_commission_rate_bps,
	gateway_fee_minor_units, net_margin_minor_units,
	is_premium_user, settlement_failed, metadata,
	created_at, completed_at, expires_at
`

// Save сохраняет VAS-транзакцию: INSERT для новой (create-FAILED-first, §4.3,
// §9), UPDATE для последующих переходов статуса.
func (r *VasTransactionRepository) Save(ctx context.Context, tx *entities.VasTransaction) error {
	q := r.getQuerier(ctx)

	metadataJSON, err := json.Marshal(tx.Metadata())
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}

	query := `
		INSERT INTO vas_transactions (
			id, user_id, transaction_type, subtype, status, failure_reason,
			amount_minor_units, selling_price_minor_units, total_amount_minor_units,
			provider, network, phone_number, data_plan_id, data_plan_name,
			request_id, transaction_reference,
			provider_cost_minor_units, provider_commission_minor_units, provider_commission_rate_bps,
			gateway_fee_minor_units, net_margin_minor_units,
			is_premium_user, settlement_failed, metadata,
			created_at, completed_at, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
		)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			failure_reason = EXCLUDED.failure_reason,
			provider = EXCLUDED.provider,
			network = EXCLUDED.network,
			phone_number = EXCLUDED.phone_number,
			data_plan_id = EXCLUDED.data_plan_id,
			data_plan_name = EXCLUDED.data_plan_name,
			transaction_reference = EXCLUDED.transaction_reference,
			provider_cost_minor_units = EXCLUDED.provider_cost_minor_units,
			provider_commission_minor_units = EXCLUDED.provider_commission_minor_units,
			provider_commission_rate_bps = EXCLUDED.provider_commission_rate_bps,
			gateway_fee_minor_units = EXCLUDED.gateway_fee_minor_units,
			net_margin_minor_units = EXCLUDED.net_margin_minor_units,
			is_premium_user = EXCLUDED.is_premium_user,
			settlement_failed = EXCLUDED.settlement_failed,
			metadata = EXCLUDED.metadata,
			completed_at = EXCLUDED.completed_at,
			expires_at = EXCLUDED.expires_at
	`

	_, err = q.Exec(ctx, query,
		tx.ID(), tx.UserID(), string(tx.Type()), tx.Subtype(), string(tx.Status()), tx.FailureReason(),
		tx.Amount().MinorUnits(), tx.SellingPrice().MinorUnits(), tx.TotalAmount().MinorUnits(),
		tx.Provider(), tx.Network(), tx.PhoneNumber(), tx.DataPlanID(), tx.DataPlanName(),
		tx.RequestID(), tx.TransactionReference(),
		tx.ProviderCost().MinorUnits(), tx.ProviderCommission().MinorUnits(), tx.ProviderCommissionRate(),
		tx.GatewayFee().MinorUnits(), tx.NetMargin().MinorUnits(),
		tx.IsPremiumUser(), tx.SettlementFailed(), metadataJSON,
		tx.CreatedAt(), tx.CompletedAt(), tx.ExpiresAt(),
	)
	if err != nil {
		if isUniqueViolation(err, "vas_transactions_user_id_request_id_unique") {
			return &domainErrors.DuplicateRequestError{Reference: tx.RequestID()}
		}
		if isUniqueViolation(err, "vas_transactions_transaction_reference_unique") {
			return &domainErrors.DuplicateRequestError{Reference: tx.TransactionReference()}
		}
		return fmt.Errorf("failed to save vas transaction: %w", err)
	}

	return nil
}

func scanVasTransaction(scanner interface{ Scan(dest ...any) error }) (*entities.VasTransaction, error) {
	var (
		id, userID                                                 uuid.UUID
		txType, subtype, status, failureReason                     string
		amountMinor, sellingPriceMinor, totalAmountMinor            int64
		provider, network, phoneNumber, dataPlanID, dataPlanName    string
		requestID, transactionReference                            string
		providerCostMinor, providerCommissionMinor                 int64
		providerCommissionRateBps                                  int64
		gatewayFeeMinor, netMarginMinor                             int64
		isPremiumUser, settlementFailed                             bool
		metadataJSON                                                []byte
		createdAt                                                   time.Time
		completedAt, expiresAt                                      *time.Time
	)

	err := scanner.Scan(
		&id, &userID, &txType, &subtype, &status, &failureReason,
		&amountMinor, &sellingPriceMinor, &totalAmountMinor,
		&provider, &network, &phoneNumber, &dataPlanID, &dataPlanName,
		&requestID, &transactionReference,
		&providerCostMinor, &providerCommissionMinor, &providerCommissionRateBps,
		&gatewayFeeMinor, &netMarginMinor,
		&isPremiumUser, &settlementFailed, &metadataJSON,
		&createdAt, &completedAt, &expiresAt,
	)
	if err != nil {
		return nil, err
	}

	amount, err := valueobjects.NewMoneyFromMinorUnits(amountMinor, valueobjects.NGN)
	if err != nil {
		return nil, fmt.Errorf("invalid stored amount: %w", err)
	}
	sellingPrice, err := valueobjects.NewMoneyFromMinorUnits(sellingPriceMinor, valueobjects.NGN)
	if err != nil {
		return nil, fmt.Errorf("invalid stored selling price: %w", err)
	}
	totalAmount, err := valueobjects.NewMoneyFromMinorUnits(totalAmountMinor, valueobjects.NGN)
	if err != nil {
		return nil, fmt.Errorf("invalid stored total amount: %w", err)
	}
	providerCost, err := valueobjects.NewMoneyFromMinorUnits(providerCostMinor, valueobjects.NGN)
	if err != nil {
		return nil, fmt.Errorf("invalid stored provider cost: %w", err)
	}
	providerCommission, err := valueobjects.NewMoneyFromMinorUnits(providerCommissionMinor, valueobjects.NGN)
	if err != nil {
		return nil, fmt.Errorf("invalid stored provider commission: %w", err)
	}
	gatewayFee, err := valueobjects.NewMoneyFromMinorUnits(gatewayFeeMinor, valueobjects.NGN)
	if err != nil {
		return nil, fmt.Errorf("invalid stored gateway fee: %w", err)
	}
	netMargin, err := valueobjects.NewMoneyFromMinorUnits(netMarginMinor, valueobjects.NGN)
	if err != nil {
		return nil, fmt.Errorf("invalid stored net margin: %w", err)
	}

	return entities.ReconstructVasTransaction(
		id, userID,
		entities.VasTransactionType(txType), subtype,
		entities.VasTransactionStatus(status), failureReason,
		amount, sellingPrice, totalAmount,
		provider, network, phoneNumber, dataPlanID, dataPlanName,
		requestID, transactionReference,
		providerCost, providerCommission, providerCommissionRateBps,
		gatewayFee, netMargin,
		isPremiumUser, settlementFailed,
		metadataJSON,
		createdAt, completedAt, expiresAt,
	)
}

// FindByID загружает транзакцию по ID.
func (r *VasTransactionRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.VasTransaction, error) {
	q := r.getQuerier(ctx)
	query := `SELECT ` + vasTransactionColumns + ` FROM vas_transactions WHERE id = $1`

	tx, err := scanVasTransaction(q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find vas transaction by id: %w", err)
	}
	return tx, nil
}

// FindByRequestID поддерживает уникальный индекс (userId, requestId) для
// идемпотентности создания транзакции (§4.3).
func (r *VasTransactionRepository) FindByRequestID(ctx context.Context, userID uuid.UUID, requestID string) (*entities.VasTransaction, error) {
	q := r.getQuerier(ctx)
	query := `SELECT ` + vasTransactionColumns + ` FROM vas_transactions WHERE user_id = $1 AND request_id = $2`

	tx, err := scanVasTransaction(q.QueryRow(ctx, query, userID, requestID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find vas transaction by request_id: %w", err)
	}
	return tx, nil
}

// FindByTransactionReference поддерживает ключ идемпотентности вебхука
// пополнения (§4.7).
func (r *VasTransactionRepository) FindByTransactionReference(ctx context.Context, reference string) (*entities.VasTransaction, error) {
	q := r.getQuerier(ctx)
	query := `SELECT ` + vasTransactionColumns + ` FROM vas_transactions WHERE transaction_reference = $1`

	tx, err := scanVasTransaction(q.QueryRow(ctx, query, reference))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find vas transaction by transaction_reference: %w", err)
	}
	return tx, nil
}

// FindRecentSuccess реализует duplicate-click guard (§4.6 step 3).
func (r *VasTransactionRepository) FindRecentSuccess(ctx context.Context, userID uuid.UUID, txType entities.VasTransactionType, amount valueobjects.Money, phoneNumber string, windowMinutes int) (*entities.VasTransaction, error) {
	q := r.getQuerier(ctx)
	query := `
		SELECT ` + vasTransactionColumns + `
		FROM vas_transactions
		WHERE user_id = $1 AND transaction_type = $2 AND amount_minor_units = $3
			AND phone_number = $4 AND status = 'SUCCESS'
			AND created_at > now() - ($5 || ' minutes')::interval
		ORDER BY created_at DESC
		LIMIT 1
	`

	tx, err := scanVasTransaction(q.QueryRow(ctx, query, userID, string(txType), amount.MinorUnits(), phoneNumber, windowMinutes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find recent success transaction: %w", err)
	}
	return tx, nil
}

// FindInFlight реализует §4.6 step 4.
func (r *VasTransactionRepository) FindInFlight(ctx context.Context, userID uuid.UUID, txType entities.VasTransactionType, amount valueobjects.Money, phoneNumber string, windowMinutes int) (*entities.VasTransaction, error) {
	q := r.getQuerier(ctx)
	query := `
		SELECT ` + vasTransactionColumns + `
		FROM vas_transactions
		WHERE user_id = $1 AND transaction_type = $2 AND amount_minor_units = $3
			AND phone_number = $4 AND status = 'PENDING'
			AND created_at > now() - ($5 || ' minutes')::interval
		ORDER BY created_at DESC
		LIMIT 1
	`

	tx, err := scanVasTransaction(q.QueryRow(ctx, query, userID, string(txType), amount.MinorUnits(), phoneNumber, windowMinutes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domainErrors.ErrEntityNotFound
		}
		return nil, fmt.Errorf("failed to find in-flight transaction: %w", err)
	}
	return tx, nil
}

// List возвращает транзакции пользователя для GET /wallet/transactions/all.
func (r *VasTransactionRepository) List(ctx context.Context, filter ports.VasTransactionFilter, offset, limit int) ([]*entities.VasTransaction, error) {
	q := r.getQuerier(ctx)

	query := `SELECT ` + vasTransactionColumns + ` FROM vas_transactions WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.UserID != nil {
		query += fmt.Sprintf(" AND user_id = $%d", argNum)
		args = append(args, *filter.UserID)
		argNum++
	}
	if filter.Type != nil {
		query += fmt.Sprintf(" AND transaction_type = $%d", argNum)
		args = append(args, string(*filter.Type))
		argNum++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, string(*filter.Status))
		argNum++
	}

	query += fmt.Sprintf(" ORDER BY created_at DESC OFFSET $%d LIMIT $%d", argNum, argNum+1)
	args = append(args, offset, limit)

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list vas transactions: %w", err)
	}
	defer rows.Close()

	var txs []*entities.VasTransaction
	for rows.Next() {
		tx, err := scanVasTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vas transaction row: %w", err)
		}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating vas transaction rows: %w", err)
	}

	return txs, nil
}
