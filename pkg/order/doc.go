// Package order routes a finished cart to the two preparation queues.
//
// Line items whose product type is above the kitchen threshold go to the
// kitchen, everything else to the barista. By default a line contributes a
// single routed item whatever its quantity; Router.ExpandQuantity switches
// to one item per unit.
package order
