// Package dtos - Wallet DTOs для передачи данных о кошельках.
package dtos

import "time"

// ============================================
// Commands (Write операции)
// ============================================

// CreateWalletCommand - команда для создания кошелька с резервным счётом (§6 POST /wallet/create).
type CreateWalletCommand struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// SetupPinCommand - команда для установки PIN-кода впервые (§4.9).
type SetupPinCommand struct {
	WalletID string `json:"wallet_id" validate:"required,uuid"`
	Pin      string `json:"pin" validate:"required,len=4,numeric"`
}

// ValidatePinCommand - команда для проверки PIN-кода перед операцией.
type ValidatePinCommand struct {
	WalletID string `json:"wallet_id" validate:"required,uuid"`
	Pin      string `json:"pin" validate:"required,len=4,numeric"`
}

// ChangePinCommand - команда для смены существующего PIN-кода.
type ChangePinCommand struct {
	WalletID   string `json:"wallet_id" validate:"required,uuid"`
	CurrentPin string `json:"current_pin" validate:"required,len=4,numeric"`
	NewPin     string `json:"new_pin" validate:"required,len=4,numeric"`
}

// AdminResetPinCommand - команда административного сброса PIN-кода (§4.9).
type AdminResetPinCommand struct {
	WalletID string `json:"wallet_id" validate:"required,uuid"`
	AdminID  string `json:"admin_id" validate:"required,uuid"`
	Reason   string `json:"reason" validate:"required"`
}

// AdminCreditCommand - команда для административного зачисления (ADMIN_REFUND).
type AdminCreditCommand struct {
	WalletID       string `json:"wallet_id" validate:"required,uuid"`
	Amount         string `json:"amount" validate:"required"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
	Reason         string `json:"reason" validate:"required"`
}

// AdminDebitCommand - команда для административного списания (ADMIN_DEDUCTION).
type AdminDebitCommand struct {
	WalletID       string `json:"wallet_id" validate:"required,uuid"`
	Amount         string `json:"amount" validate:"required"`
	IdempotencyKey string `json:"idempotency_key" validate:"required"`
	Reason         string `json:"reason" validate:"required"`
}

// ============================================
// Queries (Read операции)
// ============================================

// GetWalletBalanceQuery - запрос полного состояния баланса (§6 GET /wallet/balance).
type GetWalletBalanceQuery struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// ============================================
// Response DTOs
// ============================================

// WalletDTO - представление кошелька для API.
type WalletDTO struct {
	ID               string    `json:"id"`
	UserID           string    `json:"user_id"`
	AccountReference string    `json:"account_reference"`
	Status           string    `json:"status"`
	Balance          string    `json:"balance"`
	ReservedAmount   string    `json:"reserved_amount"`
	AvailableBalance string    `json:"available_balance"`
	PinSet           bool      `json:"pin_set"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// WalletBalanceDTO - lightweight shape for the 3-second polling endpoint
// (§6 GET /wallet/balance/current).
type WalletBalanceDTO struct {
	Balance          string `json:"balance"`
	ReservedAmount   string `json:"reserved_amount"`
	AvailableBalance string `json:"available_balance"`
}

// WalletOperationDTO - результат операции с кошельком (credit/debit).
type WalletOperationDTO struct {
	Wallet        WalletDTO `json:"wallet"`
	TransactionID string    `json:"transaction_id"`
	Message       string    `json:"message"`
}
