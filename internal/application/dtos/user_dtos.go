// Package dtos определяет Data Transfer Objects для передачи данных между слоями.
//
// User is read-mostly for the core (§3, §1): signup, profile editing, and
// KYC verification are external collaborators. The DTOs here only cover the
// narrow slice of User state the VAS pipeline and referral hook touch.
package dtos

import "time"

// ============================================
// Commands (Write операции)
// ============================================

// SetReferrerCommand - команда для привязки пользователя к рефереру и
// открытия 90-дневного окна VAS-доли (§4.6g).
type SetReferrerCommand struct {
	UserID     string `json:"user_id" validate:"required,uuid"`
	ReferrerID string `json:"referrer_id" validate:"required,uuid"`
}

// ActivateSubscriptionCommand - команда для фиксации активной подписки,
// используемой ценообразованием VAS (§4.6, §4.7 step 2).
type ActivateSubscriptionCommand struct {
	UserID  string    `json:"user_id" validate:"required,uuid"`
	Plan    string    `json:"plan" validate:"required,oneof=BASIC PREMIUM"`
	EndDate time.Time `json:"end_date" validate:"required"`
}

// ============================================
// Queries (Read операции)
// ============================================

// GetUserQuery - запрос для получения пользователя по ID.
type GetUserQuery struct {
	UserID string `json:"user_id" validate:"required,uuid"`
}

// ============================================
// Response DTOs
// ============================================

// UserDTO - представление пользователя, видимое ядру VAS-системы.
type UserDTO struct {
	ID                  string     `json:"id"`
	IsSubscribed        bool       `json:"is_subscribed"`
	SubscriptionPlan    string     `json:"subscription_plan"`
	FicoreCreditBalance int64      `json:"ficore_credit_balance"`
	ReferrerID          *string    `json:"referrer_id,omitempty"`
	ReferralCode        string     `json:"referral_code"`
	HasActiveVasShare   bool       `json:"has_active_vas_share"`
	CreatedAt           time.Time  `json:"created_at"`
	UpdatedAt           time.Time  `json:"updated_at"`
}
