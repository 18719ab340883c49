package valueobjects_test

import (
	"testing"

	"github.com/ficore/vaswallet/internal/domain/valueobjects"
	"github.com/stretchr/testify/assert"
)

func TestNewCurrency_Valid(t *testing.T) {
	c, err := valueobjects.NewCurrency("ngn")
	assert.NoError(t, err)
	assert.Equal(t, "NGN", c.Code())
}

func TestNewCurrency_Invalid(t *testing.T) {
	_, err := valueobjects.NewCurrency("USD")
	assert.ErrorIs(t, err, valueobjects.ErrInvalidCurrency)
}

func TestCurrency_Equals(t *testing.T) {
	a, _ := valueobjects.NewCurrency("NGN")
	assert.True(t, a.Equals(valueobjects.NGN))
}

func TestCurrency_IsZero(t *testing.T) {
	var c valueobjects.Currency
	assert.True(t, c.IsZero())
	assert.False(t, valueobjects.NGN.IsZero())
}

func TestMustNewCurrency_PanicsOnInvalid(t *testing.T) {
	assert.Panics(t, func() {
		valueobjects.MustNewCurrency("XYZ")
	})
}
