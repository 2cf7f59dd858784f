// Package sale describes a completed transaction as kept in the sales store.
package sale

import (
	"time"

	"posterminal/pkg/cart"
	"posterminal/pkg/order"
)

// Sale is written once the receipt has been printed.
type Sale struct {
	ID            int64           `json:"id,omitempty"`
	ReceiptNumber string          `json:"receiptNo"`
	ReceiptDate   string          `json:"receiptDate"`
	Items         []cart.LineItem `json:"items"`
	Total         float64         `json:"total"`
	Cash          float64         `json:"cash"`
	Change        float64         `json:"change"`
	Order         order.Order     `json:"order"`
	CreatedAt     time.Time       `json:"createdAt"`
}
