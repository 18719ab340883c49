package entities_test

import (
	"testing"
	"time"

	"github.com/ficore/vaswallet/internal/domain/entities"
	"github.com/ficore/vaswallet/internal/domain/errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUser_Success(t *testing.T) {
	u, err := entities.NewUser("FICORE-REF-001")
	require.NoError(t, err)
	assert.Equal(t, "FICORE-REF-001", u.ReferralCode())
	assert.False(t, u.IsSubscribed())
	assert.Equal(t, entities.SubscriptionPlanNone, u.SubscriptionPlan())
	assert.False(t, u.IsPremium())
}

func TestNewUser_RequiresReferralCode(t *testing.T) {
	_, err := entities.NewUser("")
	assert.Error(t, err)
}

func TestUser_ActivateSubscription_IsPremium(t *testing.T) {
	u, _ := entities.NewUser("FICORE-REF-002")
	u.ActivateSubscription(entities.SubscriptionPlanPremium, time.Now().Add(30*24*time.Hour))

	assert.True(t, u.IsSubscribed())
	assert.True(t, u.IsPremium())
}

func TestUser_ActivateSubscription_ExpiredNotPremium(t *testing.T) {
	u, _ := entities.NewUser("FICORE-REF-003")
	u.ActivateSubscription(entities.SubscriptionPlanBasic, time.Now().Add(-time.Hour))

	assert.False(t, u.IsPremium())
}

func TestUser_ExpireSubscription(t *testing.T) {
	u, _ := entities.NewUser("FICORE-REF-004")
	u.ActivateSubscription(entities.SubscriptionPlanPremium, time.Now().Add(time.Hour))
	u.ExpireSubscription()

	assert.False(t, u.IsSubscribed())
	assert.Equal(t, entities.SubscriptionPlanNone, u.SubscriptionPlan())
}

func TestUser_SetReferrer_OpensShareWindow(t *testing.T) {
	u, _ := entities.NewUser("FICORE-REF-005")
	referrerID := uuid.New()

	require.NoError(t, u.SetReferrer(referrerID, 90*24*time.Hour))
	assert.Equal(t, referrerID, *u.ReferrerID())
	assert.True(t, u.HasActiveReferralShare())
}

func TestUser_SetReferrer_Twice_Fails(t *testing.T) {
	u, _ := entities.NewUser("FICORE-REF-006")
	require.NoError(t, u.SetReferrer(uuid.New(), 90*24*time.Hour))

	err := u.SetReferrer(uuid.New(), 90*24*time.Hour)
	assert.Error(t, err)
}

func TestUser_HasActiveReferralShare_ExpiresAfterWindow(t *testing.T) {
	u, _ := entities.NewUser("FICORE-REF-007")
	require.NoError(t, u.SetReferrer(uuid.New(), -time.Hour))

	assert.False(t, u.HasActiveReferralShare())
}

func TestUser_CreditAndDebitFicoreBalance(t *testing.T) {
	u, _ := entities.NewUser("FICORE-REF-008")

	require.NoError(t, u.CreditFicoreBalance(1000))
	assert.Equal(t, int64(1000), u.FicoreCreditBalance())

	require.NoError(t, u.DebitFicoreBalance(400))
	assert.Equal(t, int64(600), u.FicoreCreditBalance())
}

func TestUser_DebitFicoreBalance_Insufficient(t *testing.T) {
	u, _ := entities.NewUser("FICORE-REF-009")
	require.NoError(t, u.CreditFicoreBalance(100))

	err := u.DebitFicoreBalance(200)
	assert.ErrorIs(t, err, errors.ErrInsufficientBalance)
}

func TestReconstructUser(t *testing.T) {
	id := uuid.New()
	referrerID := uuid.New()
	expiry := time.Now().Add(time.Hour)

	u := entities.ReconstructUser(
		id, true, entities.SubscriptionPlanPremium, &expiry,
		500, &referrerID, "FICORE-REF-010", &expiry,
		time.Now(), time.Now(),
	)

	assert.Equal(t, id, u.ID())
	assert.True(t, u.IsPremium())
	assert.Equal(t, int64(500), u.FicoreCreditBalance())
}
