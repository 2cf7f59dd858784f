// Package payment reconciles tendered cash against the cart total.
//
// Cash enters either as a number (SetCash, AddCash) or as operator text
// (ParseCash). Text is reduced to its digits and read as a whole amount;
// text without any digit is rejected rather than read as zero.
package payment

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"posterminal/pkg/cart"
	"posterminal/pkg/errs"
)

// DefaultDenominations are the quick-tender amounts offered to the operator.
var DefaultDenominations = []float64{2000, 5000, 10000, 20000, 50000, 100000}

// Total is Σ quantity × price over items, 0 for none.
func Total(items []cart.LineItem) float64 {
	return lo.SumBy(items, func(li cart.LineItem) float64 { return li.Subtotal() })
}

// Change is cash minus total. It is negative while the cash is short.
func Change(cash, total float64) float64 {
	return cash - total
}

// Submitable reports whether a cart with lineItems entries and the given
// change may be finalized.
func Submitable(lineItems int, change float64) bool {
	return change >= 0 && lineItems > 0
}

// ParseCash reads operator text as a cash amount. Every non-digit is
// dropped, so "Rp. 50.000" reads as 50000.
func ParseCash(raw string) (float64, error) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, raw)
	if digits == "" {
		return 0, fmt.Errorf("%w: cash %q has no digits", errs.ErrValidation, raw)
	}
	v, err := strconv.ParseFloat(digits, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: cash %q: %v", errs.ErrValidation, raw, err)
	}
	return v, nil
}

// ValidateAmount rejects amounts that are negative, NaN or infinite.
func ValidateAmount(amount float64) error {
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		return fmt.Errorf("%w: invalid cash amount %v", errs.ErrValidation, amount)
	}
	return nil
}

// State is the payment side of a transaction.
type State struct {
	Cash   float64 `json:"cash"`
	Total  float64 `json:"total"`
	Change float64 `json:"change"`
}

// Calculator holds the tendered cash and derives the rest from the cart.
type Calculator struct {
	cash float64
}

// SetCash replaces the tendered cash.
func (c *Calculator) SetCash(amount float64) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	c.cash = amount
	return nil
}

// AddCash adds amount to the tendered cash. The sum must itself be a
// valid amount.
func (c *Calculator) AddCash(amount float64) error {
	if err := ValidateAmount(amount); err != nil {
		return err
	}
	sum := c.cash + amount
	if err := ValidateAmount(sum); err != nil {
		return err
	}
	c.cash = sum
	return nil
}

// Cash is the tendered amount.
func (c *Calculator) Cash() float64 {
	return c.cash
}

// Reset sets the tendered cash back to zero.
func (c *Calculator) Reset() {
	c.cash = 0
}

// Compute derives total and change for items.
func (c *Calculator) Compute(items []cart.LineItem) State {
	total := Total(items)
	return State{Cash: c.cash, Total: total, Change: Change(c.cash, total)}
}

