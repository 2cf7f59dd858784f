// Package catalog holds the product model shown on the terminal and the
// keyword filter applied to it.
package catalog

import (
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"posterminal/pkg/errs"
)

// Product is a sellable item type. ID is the key in the local product store
// and is zero for products that only came from the upstream catalog.
type Product struct {
	ID    int64   `json:"id,omitempty"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Type  int     `json:"type"`
	Image string  `json:"image"`
}

// Validate rejects a product with a negative type or a price that is
// negative, NaN or infinite.
func Validate(p Product) error {
	if p.Type < 0 {
		return fmt.Errorf("%w: invalid product type %d", errs.ErrValidation, p.Type)
	}
	if math.IsNaN(p.Price) || math.IsInf(p.Price, 0) || p.Price < 0 {
		return fmt.Errorf("%w: invalid price %v for %q", errs.ErrValidation, p.Price, p.Name)
	}
	return nil
}

// Filter returns the products whose name contains keyword, ignoring case.
// An empty or blank keyword returns products unchanged. Any other keyword
// is matched as typed, surrounding spaces included. Order is preserved.
//
// The keyword is free text typed by the operator, so it is quoted before the
// pattern is built and metacharacters match literally.
func Filter(products []Product, keyword string) []Product {
	if strings.TrimSpace(keyword) == "" {
		return products
	}
	rg := regexp.MustCompile("(?i)" + regexp.QuoteMeta(keyword))
	return lo.Filter(products, func(p Product, _ int) bool {
		return rg.MatchString(p.Name)
	})
}

// FindByType returns the first product with the given type code.
func FindByType(products []Product, itemType int) (Product, bool) {
	return lo.Find(products, func(p Product) bool {
		return p.Type == itemType
	})
}
