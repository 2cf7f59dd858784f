package order

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"posterminal/pkg/cart"
)

// Source is where an order was placed.
type Source int

const (
	SourceCounter Source = iota
	SourceWeb
)

// Location is the store that fulfils the order.
type Location int

const (
	LocationAtlanta Location = iota
	LocationCharlotte
	LocationRaleigh
)

// CommandType is the kind of command sent to the counter service.
type CommandType int

const (
	CommandPlaceOrder CommandType = iota
)

// DefaultKitchenThreshold is the highest product type still made by the
// barista. Types above it are kitchen items.
const DefaultKitchenThreshold = 5

// AnonymousLoyaltyMemberID is used when no loyalty member is attached.
var AnonymousLoyaltyMemberID = uuid.Nil.String()

// Item is one routed entry of a fulfillment order.
type Item struct {
	ItemType int `json:"itemType"`
}

// Order is the fulfillment order sent upstream.
type Order struct {
	CommandType     CommandType `json:"commandType"`
	OrderSource     Source      `json:"orderSource"`
	Location        Location    `json:"location"`
	LoyaltyMemberID string      `json:"loyaltyMemberId"`
	Timestamp       time.Time   `json:"timestamp"`
	BaristaItems    []Item      `json:"baristaItems"`
	KitchenItems    []Item      `json:"kitchenItems"`
}

// Ack is the upstream acknowledgment of a placed order. Its shape is not
// fixed, so the body is kept as received.
type Ack struct {
	Body json.RawMessage `json:"body,omitempty"`
}

// Dispatcher hands a finished order to the fulfillment service.
type Dispatcher interface {
	PlaceOrder(ctx context.Context, o Order) (Ack, error)
}

type idempotencyKeyCtx struct{}

// WithIdempotencyKey attaches the key a dispatcher sends with the order so
// the fulfillment service can drop duplicates.
func WithIdempotencyKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, idempotencyKeyCtx{}, key)
}

// IdempotencyKey returns the key set by WithIdempotencyKey, or "".
func IdempotencyKey(ctx context.Context) string {
	key, _ := ctx.Value(idempotencyKeyCtx{}).(string)
	return key
}

// Router partitions cart line items into barista and kitchen items and
// builds the order payload. The zero value routes with the defaults.
type Router struct {
	CommandType      CommandType
	OrderSource      Source
	Location         Location
	KitchenThreshold int
	// ExpandQuantity routes one item per unit instead of one per line.
	ExpandQuantity bool
}

// NewRouter returns a Router using DefaultKitchenThreshold.
func NewRouter() Router {
	return Router{KitchenThreshold: DefaultKitchenThreshold}
}

// IsKitchen reports whether productType is prepared in the kitchen.
func (r Router) IsKitchen(productType int) bool {
	return productType > r.threshold()
}

// Partition splits items into barista and kitchen entries, keeping the cart
// order within each side.
func (r Router) Partition(items []cart.LineItem) (barista, kitchen []Item) {
	routed := lo.FlatMap(items, func(li cart.LineItem, _ int) []cart.LineItem {
		if !r.ExpandQuantity || li.Quantity <= 1 {
			return []cart.LineItem{li}
		}
		return lo.Times(li.Quantity, func(int) cart.LineItem { return li })
	})
	k, b := lo.FilterReject(routed, func(li cart.LineItem, _ int) bool {
		return r.IsKitchen(li.ProductType)
	})
	return toItems(b), toItems(k)
}

// Build returns the order for items placed at now. An empty
// loyaltyMemberID is replaced with AnonymousLoyaltyMemberID.
func (r Router) Build(items []cart.LineItem, now time.Time, loyaltyMemberID string) Order {
	if loyaltyMemberID == "" {
		loyaltyMemberID = AnonymousLoyaltyMemberID
	}
	barista, kitchen := r.Partition(items)
	return Order{
		CommandType:     r.CommandType,
		OrderSource:     r.OrderSource,
		Location:        r.Location,
		LoyaltyMemberID: loyaltyMemberID,
		Timestamp:       now.UTC(),
		BaristaItems:    barista,
		KitchenItems:    kitchen,
	}
}

func (r Router) threshold() int {
	if r.KitchenThreshold == 0 {
		return DefaultKitchenThreshold
	}
	return r.KitchenThreshold
}

func toItems(lines []cart.LineItem) []Item {
	return lo.Map(lines, func(li cart.LineItem, _ int) Item {
		return Item{ItemType: li.ProductType}
	})
}
