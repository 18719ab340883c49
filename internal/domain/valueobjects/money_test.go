// Package valueobjects_test demonstrates domain layer testing.
// Domain tests have NO external dependencies - pure unit tests.
package valueobjects_test

import (
	"testing"

	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney_Success(t *testing.T) {
	tests := []struct {
		name       string
		amount     string
		wantMinor  int64
		wantString string
	}{
		{"whole naira", "100", 10000, "100.00"},
		{"two decimals", "100.50", 10050, "100.50"},
		{"one decimal pads", "5.5", 550, "5.50"},
		{"zero", "0", 0, "0.00"},
		{"zero with decimals", "0.00", 0, "0.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := valueobjects.NewMoney(tt.amount, valueobjects.NGN)
			require.NoError(t, err)
			assert.Equal(t, tt.wantMinor, m.MinorUnits())
			assert.Equal(t, tt.wantString, m.DecimalString())
		})
	}
}

func TestNewMoney_NegativeAmount(t *testing.T) {
	_, err := valueobjects.NewMoney("-50.00", valueobjects.NGN)
	assert.ErrorIs(t, err, valueobjects.ErrNegativeAmount)
}

func TestNewMoney_InvalidFormat(t *testing.T) {
	tests := []string{"", "abc", "100.555", "."}
	for _, amt := range tests {
		_, err := valueobjects.NewMoney(amt, valueobjects.NGN)
		assert.Error(t, err, "expected error for %q", amt)
	}
}

func TestNewMoneyFromMinorUnits(t *testing.T) {
	m, err := valueobjects.NewMoneyFromMinorUnits(20000, valueobjects.NGN)
	require.NoError(t, err)
	assert.Equal(t, "200.00", m.DecimalString())

	_, err = valueobjects.NewMoneyFromMinorUnits(-1, valueobjects.NGN)
	assert.ErrorIs(t, err, valueobjects.ErrNegativeAmount)
}

func TestMoney_Add(t *testing.T) {
	a, _ := valueobjects.NewMoney("100.00", valueobjects.NGN)
	b, _ := valueobjects.NewMoney("50.50", valueobjects.NGN)

	sum, err := a.Add(b)
	require.NoError(t, err)
	assert.Equal(t, "150.50", sum.DecimalString())

	// immutability: originals unchanged
	assert.Equal(t, "100.00", a.DecimalString())
}

func TestMoney_Subtract(t *testing.T) {
	a, _ := valueobjects.NewMoney("100.00", valueobjects.NGN)
	b, _ := valueobjects.NewMoney("30.00", valueobjects.NGN)

	diff, err := a.Subtract(b)
	require.NoError(t, err)
	assert.Equal(t, "70.00", diff.DecimalString())

	_, err = b.Subtract(a)
	assert.ErrorIs(t, err, valueobjects.ErrInsufficientAmount)
}

func TestMoney_MultiplyRate(t *testing.T) {
	// 3% provider commission on 200.00 == 6.00
	amount, _ := valueobjects.NewMoney("200.00", valueobjects.NGN)
	commission := amount.MultiplyRate(300)
	assert.Equal(t, "6.00", commission.DecimalString())

	// 1.6% gateway fee on 1000.00 == 16.00
	deposit, _ := valueobjects.NewMoney("1000.00", valueobjects.NGN)
	fee := deposit.MultiplyRate(160)
	assert.Equal(t, "16.00", fee.DecimalString())
}

func TestMoney_Comparisons(t *testing.T) {
	a, _ := valueobjects.NewMoney("100.00", valueobjects.NGN)
	b, _ := valueobjects.NewMoney("50.00", valueobjects.NGN)

	gt, err := a.GreaterThan(b)
	require.NoError(t, err)
	assert.True(t, gt)

	lt, err := b.LessThan(a)
	require.NoError(t, err)
	assert.True(t, lt)

	gte, err := a.GreaterThanOrEqual(a)
	require.NoError(t, err)
	assert.True(t, gte)
}

func TestMoney_CurrencyMismatch(t *testing.T) {
	ngn, _ := valueobjects.NewMoney("100.00", valueobjects.NGN)
	other := valueobjects.Money{}

	_, err := ngn.Add(other)
	assert.ErrorIs(t, err, valueobjects.ErrCurrencyMismatch)
}

func TestMoney_ZeroAndPositive(t *testing.T) {
	z := valueobjects.Zero(valueobjects.NGN)
	assert.True(t, z.IsZero())
	assert.False(t, z.IsPositive())

	m, _ := valueobjects.NewMoney("0.01", valueobjects.NGN)
	assert.False(t, m.IsZero())
	assert.True(t, m.IsPositive())
}

func TestMoney_Equals(t *testing.T) {
	a, _ := valueobjects.NewMoney("42.42", valueobjects.NGN)
	b, _ := valueobjects.NewMoney("42.42", valueobjects.NGN)
	assert.True(t, a.Equals(b))
}
