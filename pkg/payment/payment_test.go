package payment

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posterminal/pkg/cart"
	"posterminal/pkg/errs"
)

func TestTotal(t *testing.T) {
	assert.Zero(t, Total(nil))

	items := []cart.LineItem{
		{ProductType: 1, Price: 10000, Quantity: 2},
		{ProductType: 7, Price: 15000, Quantity: 1},
	}
	assert.Equal(t, 35000.0, Total(items))
}

func TestChangeAndSubmitable(t *testing.T) {
	assert.Equal(t, 5000.0, Change(40000, 35000))
	assert.Equal(t, -100.0, Change(0, 100))

	assert.True(t, Submitable(1, 0))
	assert.True(t, Submitable(2, 5000))
	assert.False(t, Submitable(0, 1000000), "empty cart is never submitable")
	assert.False(t, Submitable(3, -0.5))
}

func TestParseCash(t *testing.T) {
	cases := map[string]float64{
		"50000":      50000,
		"Rp. 50.000": 50000,
		" 1,000 ":    1000,
		"0":          0,
		"12a34":      1234,
	}
	for raw, want := range cases {
		got, err := ParseCash(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, want, got, raw)
	}

	for _, raw := range []string{"", "abc", "Rp. ", "-"} {
		_, err := ParseCash(raw)
		assert.True(t, errors.Is(err, errs.ErrValidation), raw)
	}
}

func TestCalculator(t *testing.T) {
	var c Calculator
	items := []cart.LineItem{
		{ProductType: 1, Price: 10000, Quantity: 2},
		{ProductType: 7, Price: 15000, Quantity: 1},
	}

	assert.Equal(t, State{Cash: 0, Total: 35000, Change: -35000}, c.Compute(items))

	require.NoError(t, c.SetCash(20000))
	require.NoError(t, c.AddCash(20000))
	assert.Equal(t, State{Cash: 40000, Total: 35000, Change: 5000}, c.Compute(items))

	for _, bad := range []float64{-1, math.NaN(), math.Inf(1)} {
		assert.True(t, errors.Is(c.SetCash(bad), errs.ErrValidation))
		assert.True(t, errors.Is(c.AddCash(bad), errs.ErrValidation))
	}
	assert.Equal(t, 40000.0, c.Cash())

	c.Reset()
	assert.Zero(t, c.Cash())
}

func TestAddCashRejectsOverflowingSum(t *testing.T) {
	var c Calculator
	require.NoError(t, c.AddCash(math.MaxFloat64))

	err := c.AddCash(math.MaxFloat64)
	require.ErrorIs(t, err, errs.ErrValidation)
	assert.Equal(t, math.MaxFloat64, c.Cash())
	assert.False(t, math.IsInf(c.Compute(nil).Change, 0))
}
