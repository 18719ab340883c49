// Package entities - User is a read-mostly identity the core reads for
// pricing and referral decisions. Full KYC verification workflow, profile
// editing, and authentication are external collaborators (§1); the core only
// needs the subscription and referral fields that influence VAS pricing,
// fee-waivers, and the referral-share hook (§3, §4.6g).
package entities

import (
	"time"

	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/google/uuid"
)

// SubscriptionPlan is the tier the core reads when computing fee-waivers.
type SubscriptionPlan string

const (
	SubscriptionPlanNone     SubscriptionPlan = "NONE"
	SubscriptionPlanBasic    SubscriptionPlan = "BASIC"
	SubscriptionPlanPremium  SubscriptionPlan = "PREMIUM"
)

// User is the identity the core reads for pricing/referral context.
//
// Entity Pattern:
// - Has identity (ID).
// - Deliberately thin: the core neither owns nor mutates profile data,
//   KYC status, or subscription billing - those belong to the external
//   collaborators named in §1. It only needs enough state to answer the
//   questions VAS pricing and the referral hook ask.
type User struct {
	id uuid.UUID

	isSubscribed        bool
	subscriptionPlan    SubscriptionPlan
	subscriptionEndDate *time.Time

	ficoreCreditBalance int64 // separate credit economy, minor units

	referrerID        *uuid.UUID
	referralCode      string
	vasShareExpiryDate *time.Time // §4.6g: referrer earns 1% VAS share until this date

	createdAt time.Time
	updatedAt time.Time
}

// NewUser creates a new user record. New users start unsubscribed with no
// referrer.
func NewUser(referralCode string) (*User, error) {
	if referralCode == "" {
		return nil, errors.ValidationError{Field: "referralCode", Message: "referralCode is required"}
	}

	now := time.Now()
	return &User{
		id:               uuid.New(),
		subscriptionPlan: SubscriptionPlanNone,
		referralCode:     referralCode,
		createdAt:        now,
		updatedAt:        now,
	}, nil
}

// ReconstructUser reconstructs a User from stored data.
func ReconstructUser(
	id uuid.UUID,
	isSubscribed bool,
	subscriptionPlan SubscriptionPlan,
	subscriptionEndDate *time.Time,
	ficoreCreditBalance int64,
	referrerID *uuid.UUID,
	referralCode string,
	vasShareExpiryDate *time.Time,
	createdAt, updatedAt time.Time,
) *User {
	return &User{
		id:                  id,
		isSubscribed:        isSubscribed,
		subscriptionPlan:    subscriptionPlan,
		subscriptionEndDate: subscriptionEndDate,
		ficoreCreditBalance: ficoreCreditBalance,
		referrerID:          referrerID,
		referralCode:        referralCode,
		vasShareExpiryDate:  vasShareExpiryDate,
		createdAt:           createdAt,
		updatedAt:           updatedAt,
	}
}

// Getters

func (u *User) ID() uuid.UUID                         { return u.id }
func (u *User) IsSubscribed() bool                    { return u.isSubscribed }
func (u *User) SubscriptionPlan() SubscriptionPlan    { return u.subscriptionPlan }
func (u *User) SubscriptionEndDate() *time.Time       { return u.subscriptionEndDate }
func (u *User) FicoreCreditBalance() int64            { return u.ficoreCreditBalance }
func (u *User) ReferrerID() *uuid.UUID                { return u.referrerID }
func (u *User) ReferralCode() string                  { return u.referralCode }
func (u *User) VasShareExpiryDate() *time.Time        { return u.vasShareExpiryDate }
func (u *User) CreatedAt() time.Time                  { return u.createdAt }
func (u *User) UpdatedAt() time.Time                  { return u.updatedAt }

// Business Methods

// IsPremium returns true if the user currently holds an active subscription
// (used by VAS pricing to set isPremiumUser on the ledger row, §3).
func (u *User) IsPremium() bool {
	if !u.isSubscribed {
		return false
	}
	if u.subscriptionEndDate == nil {
		return true
	}
	return time.Now().Before(*u.subscriptionEndDate)
}

// HasActiveReferralShare reports whether a referral relationship exists and
// is still within its 90-day VAS-share window (§4.6g): if true, the referrer
// earns 1% of this user's airtime/data spend.
func (u *User) HasActiveReferralShare() bool {
	if u.referrerID == nil || u.vasShareExpiryDate == nil {
		return false
	}
	return time.Now().Before(*u.vasShareExpiryDate)
}

// SetReferrer attaches a referrer and opens the 90-day VAS-share window.
// Business rule: can only be set once, at signup.
func (u *User) SetReferrer(referrerID uuid.UUID, shareWindow time.Duration) error {
	if u.referrerID != nil {
		return errors.NewBusinessRuleViolation(
			"REFERRER_ALREADY_SET",
			"a referrer is already attached to this user",
			nil,
		)
	}

	expiry := time.Now().Add(shareWindow)
	u.referrerID = &referrerID
	u.vasShareExpiryDate = &expiry
	u.updatedAt = time.Now()
	return nil
}

// CreditFicoreBalance adds to the separate Ficore credit economy balance.
func (u *User) CreditFicoreBalance(amount int64) error {
	if amount <= 0 {
		return errors.ValidationError{Field: "amount", Message: "credit amount must be positive"}
	}
	u.ficoreCreditBalance += amount
	u.updatedAt = time.Now()
	return nil
}

// DebitFicoreBalance subtracts from the separate Ficore credit economy balance.
func (u *User) DebitFicoreBalance(amount int64) error {
	if amount <= 0 {
		return errors.ValidationError{Field: "amount", Message: "debit amount must be positive"}
	}
	if amount > u.ficoreCreditBalance {
		return errors.ErrInsufficientBalance
	}
	u.ficoreCreditBalance -= amount
	u.updatedAt = time.Now()
	return nil
}

// ActivateSubscription records a subscription tier change (billing itself is
// an external collaborator; the core only stores the resulting flags it
// needs for VAS pricing).
func (u *User) ActivateSubscription(plan SubscriptionPlan, endDate time.Time) {
	u.isSubscribed = true
	u.subscriptionPlan = plan
	u.subscriptionEndDate = &endDate
	u.updatedAt = time.Now()
}

// ExpireSubscription clears the subscribed flag once the billing collaborator
// reports lapse/cancellation.
func (u *User) ExpireSubscription() {
	u.isSubscribed = false
	u.subscriptionPlan = SubscriptionPlanNone
	u.updatedAt = time.Now()
}
