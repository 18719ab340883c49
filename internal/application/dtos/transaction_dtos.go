// Package dtos - VAS transaction DTOs for the purchase pipeline and
// transaction-history endpoints (§4.6, §6).
package dtos

import "time"

// ============================================
// Commands (Write операции)
// ============================================

// BuyAirtimeCommand - команда на покупку airtime (§6 POST /purchase/buy-airtime).
type BuyAirtimeCommand struct {
	UserID      string `json:"user_id" validate:"required,uuid"`
	PhoneNumber string `json:"phone_number" validate:"required,e164"`
	Network     string `json:"network" validate:"required"`
	Amount      string `json:"amount" validate:"required"`
	Pin         string `json:"pin" validate:"required,len=4,numeric"`
}

// BuyDataCommand - команда на покупку data-плана (§6 POST /purchase/buy-data).
type BuyDataCommand struct {
	UserID       string `json:"user_id" validate:"required,uuid"`
	PhoneNumber  string `json:"phone_number" validate:"required,e164"`
	Network      string `json:"network" validate:"required"`
	DataPlanID   string `json:"data_plan_id" validate:"required"`
	DataPlanName string `json:"data_plan_name" validate:"required"`
	Amount       string `json:"amount" validate:"required"`
	PlanType     string `json:"plan_type" validate:"required"`
	Pin          string `json:"pin" validate:"required,len=4,numeric"`
}

// ============================================
// Queries (Read операции)
// ============================================

// ListTransactionsQuery - запрос списка VAS-транзакций с фильтрацией
// (§6 GET /wallet/transactions/all).
type ListTransactionsQuery struct {
	UserID string  `json:"user_id" validate:"required,uuid"`
	Type   *string `json:"type,omitempty" validate:"omitempty,oneof=WALLET_FUNDING AIRTIME DATA KYC_VERIFICATION ADMIN_REFUND ADMIN_DEDUCTION"`
	Status *string `json:"status,omitempty" validate:"omitempty,oneof=FAILED PENDING SUCCESS NEEDS_RECONCILIATION"`
	Offset int     `json:"offset" validate:"min=0"`
	Limit  int     `json:"limit" validate:"min=1,max=100"`
}

// SyncTransactionsCommand - reconciliation request from the client after
// local/offline state drifted from server state (§6 POST /wallet/transactions/sync).
type SyncTransactionsCommand struct {
	UserID               string   `json:"user_id" validate:"required,uuid"`
	KnownTransactionRefs []string `json:"known_transaction_refs"`
}

// ============================================
// Response DTOs
// ============================================

// VasTransactionDTO - представление VAS-транзакции для API.
type VasTransactionDTO struct {
	ID                    string            `json:"id"`
	UserID                string            `json:"user_id"`
	Type                  string            `json:"type"`
	Subtype               string            `json:"subtype,omitempty"`
	Status                string            `json:"status"`
	FailureReason         string            `json:"failure_reason,omitempty"`
	Amount                string            `json:"amount"`
	SellingPrice          string            `json:"selling_price"`
	TotalAmount           string            `json:"total_amount"`
	Provider              string            `json:"provider,omitempty"`
	Network               string            `json:"network,omitempty"`
	PhoneNumber           string            `json:"phone_number,omitempty"`
	DataPlanID            string            `json:"data_plan_id,omitempty"`
	DataPlanName          string            `json:"data_plan_name,omitempty"`
	RequestID             string            `json:"request_id"`
	TransactionReference  string            `json:"transaction_reference,omitempty"`
	SettlementFailed      bool              `json:"settlement_failed"`
	Metadata              map[string]string `json:"metadata,omitempty"`
	CreatedAt             time.Time         `json:"created_at"`
	CompletedAt           *time.Time        `json:"completed_at,omitempty"`
}

// VasTransactionListDTO - результат для списка VAS-транзакций.
type VasTransactionListDTO struct {
	Transactions []VasTransactionDTO `json:"transactions"`
	TotalCount   int                 `json:"total_count"`
	Offset       int                 `json:"offset"`
	Limit        int                 `json:"limit"`
}

// PurchaseAcceptedDTO - результат постановки покупки в очередь (§4.6 step 10):
// the orchestrator returns before settlement completes.
type PurchaseAcceptedDTO struct {
	TransactionID     string `json:"transaction_id"`
	RequestID         string `json:"request_id"`
	ProcessingStatus  string `json:"processing_status"` // always "QUEUED" on acceptance
	AvailableBalance  string `json:"available_balance"`
}
