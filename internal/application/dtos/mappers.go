// Package dtos - Mappers для конвертации domain entities в DTOs.
//
// SOLID Principles:
// - SRP: Mappers отвечают только за конвертацию
// - OCP: Новые мапперы добавляются без изменения существующих
//
// Pattern: Mapper/Converter
// Отделяет domain representation от API representation
package dtos

import (
	"fmt"

	"github.com/ficore/vaswallet/internal/domain/entities"
)

// ============================================
// User Mappers
// ============================================

// ToUserDTO конвертирует domain entity User в DTO.
func ToUserDTO(user *entities.User) UserDTO {
	dto := UserDTO{
		ID:                  user.ID().String(),
		IsSubscribed:        user.IsSubscribed(),
		SubscriptionPlan:    string(user.SubscriptionPlan()),
		FicoreCreditBalance: user.FicoreCreditBalance(),
		ReferralCode:        user.ReferralCode(),
		HasActiveVasShare:   user.HasActiveReferralShare(),
		CreatedAt:           user.CreatedAt(),
		UpdatedAt:           user.UpdatedAt(),
	}

	if referrerID := user.ReferrerID(); referrerID != nil {
		referrerStr := referrerID.String()
		dto.ReferrerID = &referrerStr
	}

	return dto
}

// ============================================
// Wallet Mappers
// ============================================

// ToWalletDTO конвертирует domain entity Wallet в DTO.
func ToWalletDTO(wallet *entities.Wallet) WalletDTO {
	available, _ := wallet.AvailableBalance()

	return WalletDTO{
		ID:               wallet.ID().String(),
		UserID:           wallet.UserID().String(),
		AccountReference: wallet.AccountReference(),
		Status:           string(wallet.Status()),
		Balance:          wallet.Balance().DecimalString(),
		ReservedAmount:   wallet.ReservedAmount().DecimalString(),
		AvailableBalance: available.DecimalString(),
		PinSet:           wallet.PinSet(),
		CreatedAt:        wallet.CreatedAt(),
		UpdatedAt:        wallet.UpdatedAt(),
	}
}

// ToWalletBalanceDTO конвертирует Wallet в облегчённый DTO для 3-секундного
// polling-эндпоинта (§6 GET /wallet/balance/current).
func ToWalletBalanceDTO(wallet *entities.Wallet) WalletBalanceDTO {
	available, _ := wallet.AvailableBalance()

	return WalletBalanceDTO{
		Balance:          wallet.Balance().DecimalString(),
		ReservedAmount:   wallet.ReservedAmount().DecimalString(),
		AvailableBalance: available.DecimalString(),
	}
}

// ============================================
// VasTransaction Mappers
// ============================================

// ToVasTransactionDTO конвертирует domain entity VasTransaction в DTO.
func ToVasTransactionDTO(tx *entities.VasTransaction) VasTransactionDTO {
	dto := VasTransactionDTO{
		ID:                   tx.ID().String(),
		UserID:               tx.UserID().String(),
		Type:                 string(tx.Type()),
		Subtype:              tx.Subtype(),
		Status:               string(tx.Status()),
		FailureReason:        tx.FailureReason(),
		Amount:               tx.Amount().DecimalString(),
		SellingPrice:         tx.SellingPrice().DecimalString(),
		TotalAmount:          tx.TotalAmount().DecimalString(),
		Provider:             tx.Provider(),
		Network:              tx.Network(),
		PhoneNumber:          tx.PhoneNumber(),
		DataPlanID:           tx.DataPlanID(),
		DataPlanName:         tx.DataPlanName(),
		RequestID:            tx.RequestID(),
		TransactionReference: tx.TransactionReference(),
		SettlementFailed:     tx.SettlementFailed(),
		Metadata:             convertMetadataToStringMap(tx.Metadata()),
		CreatedAt:            tx.CreatedAt(),
	}

	if completedAt := tx.CompletedAt(); completedAt != nil {
		dto.CompletedAt = completedAt
	}

	return dto
}

// ToVasTransactionDTOList конвертирует список VAS-транзакций.
func ToVasTransactionDTOList(transactions []*entities.VasTransaction) []VasTransactionDTO {
	result := make([]VasTransactionDTO, len(transactions))
	for i, tx := range transactions {
		result[i] = ToVasTransactionDTO(tx)
	}
	return result
}

// ============================================
// Helper functions
// ============================================

// convertMetadataToStringMap конвертирует map[string]interface{} в map[string]string.
// Для упрощения JSON сериализации.
func convertMetadataToStringMap(metadata map[string]interface{}) map[string]string {
	if metadata == nil {
		return nil
	}

	result := make(map[string]string, len(metadata))
	for k, v := range metadata {
		switch val := v.(type) {
		case string:
			result[k] = val
		case nil:
			result[k] = ""
		default:
			result[k] = fmt.Sprintf("%v", val)
		}
	}

	return result
}
