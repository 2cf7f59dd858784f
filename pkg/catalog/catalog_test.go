package catalog

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posterminal/pkg/errs"
)

func TestFilter(t *testing.T) {
	products := []Product{
		{Name: "Iced Coffee", Type: 1},
		{Name: "Tea", Type: 2},
		{Name: "COFFEE_BLACK", Type: 3},
	}

	t.Run("empty keyword returns everything", func(t *testing.T) {
		assert.Equal(t, products, Filter(products, ""))
		assert.Equal(t, products, Filter(products, "   "))
	})

	t.Run("case insensitive substring", func(t *testing.T) {
		got := Filter(products, "cof")
		assert.Equal(t, []Product{products[0], products[2]}, got)
	})

	t.Run("surrounding spaces are part of the keyword", func(t *testing.T) {
		assert.Empty(t, Filter(products, "tea "))
		assert.Equal(t, []Product{products[0]}, Filter(products, "iced "))
		assert.Equal(t, []Product{products[0]}, Filter(products, " cof"))
	})

	t.Run("no match", func(t *testing.T) {
		assert.Empty(t, Filter(products, "muffin"))
	})

	t.Run("metacharacters are literal", func(t *testing.T) {
		special := []Product{{Name: "Latte (large)"}, {Name: "Latte"}, {Name: "a*b"}, {Name: "[x]"}}
		assert.Equal(t, []Product{special[0]}, Filter(special, "("))
		assert.Equal(t, []Product{special[2]}, Filter(special, "*"))
		assert.Equal(t, []Product{special[3]}, Filter(special, "["))
		assert.Empty(t, Filter(special, ".*"))
	})
}

func TestFilterSingleMatch(t *testing.T) {
	got := Filter([]Product{{Name: "Iced Coffee"}, {Name: "Tea"}}, "cof")
	assert.Equal(t, []Product{{Name: "Iced Coffee"}}, got)
}

func TestFindByType(t *testing.T) {
	products := []Product{{Name: "LATTE", Type: 5}, {Name: "MUFFIN", Type: 8}}

	p, ok := FindByType(products, 8)
	assert.True(t, ok)
	assert.Equal(t, "MUFFIN", p.Name)

	_, ok = FindByType(products, 1)
	assert.False(t, ok)
}

func TestItemTypeString(t *testing.T) {
	assert.Equal(t, "CAPPUCCINO", ItemTypeCappuccino.String())
	assert.Equal(t, "CROISSANT_CHOCOLATE", ItemTypeCroissantChocolate.String())
	assert.Equal(t, "ITEM_TYPE_42", ItemType(42).String())
}

func TestValidate(t *testing.T) {
	require.NoError(t, Validate(Product{Name: "LATTE", Type: 5, Price: 5000}))
	require.NoError(t, Validate(Product{Name: "WATER", Type: 0, Price: 0}))

	for _, bad := range []Product{
		{Name: "LATTE", Type: -1, Price: 5000},
		{Name: "LATTE", Type: 5, Price: -1},
		{Name: "LATTE", Type: 5, Price: math.NaN()},
		{Name: "LATTE", Type: 5, Price: math.Inf(1)},
	} {
		assert.ErrorIs(t, Validate(bad), errs.ErrValidation, "%+v", bad)
	}
}
