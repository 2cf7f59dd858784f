package catalog

import "fmt"

// ItemType is the upstream code for a product type.
type ItemType int

const (
	ItemTypeCappuccino ItemType = iota
	ItemTypeCoffeeBlack
	ItemTypeCoffeeWithRoom
	ItemTypeEspresso
	ItemTypeEspressoDouble
	ItemTypeLatte
	ItemTypeCakePop
	ItemTypeCroissant
	ItemTypeMuffin
	ItemTypeCroissantChocolate
)

var itemTypeNames = []string{
	"CAPPUCCINO",
	"COFFEE_BLACK",
	"COFFEE_WITH_ROOM",
	"ESPRESSO",
	"ESPRESSO_DOUBLE",
	"LATTE",
	"CAKEPOP",
	"CROISSANT",
	"MUFFIN",
	"CROISSANT_CHOCOLATE",
}

func (t ItemType) String() string {
	if t < 0 || int(t) >= len(itemTypeNames) {
		return fmt.Sprintf("ITEM_TYPE_%d", int(t))
	}
	return itemTypeNames[t]
}
