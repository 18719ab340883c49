package transaction

import (
	"context"
	"fmt"

	"github.com/ficore/vaswallet/internal/application/dtos"
	"github.com/ficore/vaswallet/internal/application/ports"
	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/google/uuid"
)

// syncPageSize bounds how far back reconciliation looks per sync request;
// a client missing more than this many transactions should page through
// GET /wallet/transactions/all instead.
const syncPageSize = 200

// SyncTransactionsUseCase reconciles a client's local transaction cache
// against the server's ledger (§6 POST /wallet/transactions/sync): it
// returns every transaction the server knows about that the client didn't
// list as already known, so the client can merge the delta in without
// re-downloading its whole history.
type SyncTransactionsUseCase struct {
	txRepo ports.VasTransactionRepository
}

// NewSyncTransactionsUseCase creates a new SyncTransactionsUseCase.
func NewSyncTransactionsUseCase(txRepo ports.VasTransactionRepository) *SyncTransactionsUseCase {
	return &SyncTransactionsUseCase{txRepo: txRepo}
}

// Execute returns the transactions missing from the client's known set.
func (uc *SyncTransactionsUseCase) Execute(ctx context.Context, cmd dtos.SyncTransactionsCommand) (*dtos.VasTransactionListDTO, error) {
	userID, err := uuid.Parse(cmd.UserID)
	if err != nil {
		return nil, errors.ValidationError{Field: "user_id", Message: "invalid UUID"}
	}

	known := make(map[string]struct{}, len(cmd.KnownTransactionRefs))
	for _, ref := range cmd.KnownTransactionRefs {
		known[ref] = struct{}{}
	}

	filter := ports.VasTransactionFilter{UserID: &userID}
	transactions, err := uc.txRepo.List(ctx, filter, 0, syncPageSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for sync: %w", err)
	}

	missing := make([]dtos.VasTransactionDTO, 0, len(transactions))
	for _, tx := range transactions {
		if _, seen := known[tx.TransactionReference()]; seen {
			continue
		}
		missing = append(missing, dtos.ToVasTransactionDTO(tx))
	}

	return &dtos.VasTransactionListDTO{
		Transactions: missing,
		TotalCount:   len(missing),
		Offset:       0,
		Limit:        syncPageSize,
	}, nil
}
