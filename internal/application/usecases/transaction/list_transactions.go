// Package transaction implements the read-side use cases behind the
// unified transaction views (§6 GET /wallet/transactions/all, POST
// /wallet/transactions/sync). Unlike the purchase and webhook use cases,
// these never mutate a Wallet or VasTransaction - they only read the
// ledger VasTransactionRepository already maintains.
package transaction

import (
	"context"
	"fmt"

	"github.com/ficore/vaswallet/internal/application/dtos"
	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/domain/entities"
	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/google/uuid"
)

// ListTransactionsUseCase serves the unified paginated transaction view.
type ListTransactionsUseCase struct {
	txRepo ports.VasTransactionRepository
}

// NewListTransactionsUseCase creates a new ListTransactionsUseCase.
func NewListTransactionsUseCase(txRepo ports.VasTransactionRepository) *ListTransactionsUseCase {
	return &ListTransactionsUseCase{txRepo: txRepo}
}

// Execute returns a page of the user's VAS transactions, optionally
// filtered by type and/or status.
func (uc *ListTransactionsUseCase) Execute(ctx context.Context, query dtos.ListTransactionsQuery) (*dtos.VasTransactionListDTO, error) {
	userID, err := uuid.Parse(query.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}

	filter := ports.VasTransactionFilter{UserID: &userID}
	if query.Type != nil {
		txType := entities.VasTransactionType(*query.Type)
		filter.Type = &txType
	}
	if query.Status != nil {
		status := entities.VasTransactionStatus(*query.Status)
		filter.Status = &status
	}

	limit := query.Limit
	if limit <= 0 {
		limit = 20
	}

	transactions, err := uc.txRepo.List(ctx, filter, query.Offset, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return &dtos.VasTransactionListDTO{
		Transactions: dtos.ToVasTransactionDTOList(transactions),
		TotalCount:   len(transactions),
		Offset:       query.Offset,
		Limit:        limit,
	}, nil
}
