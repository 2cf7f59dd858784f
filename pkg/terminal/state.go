package terminal

import (
	"posterminal/pkg/audio"
	"posterminal/pkg/cart"
	"posterminal/pkg/order"
	"posterminal/pkg/receipt"
)

// State is the phase of the transaction being rung up.
type State string

const (
	// StateIdle: empty cart and no cash.
	StateIdle State = "idle"
	// StateFilling: items or cash entered but not enough to submit.
	StateFilling State = "filling"
	// StateReadyToSubmit: the cart is non-empty and the cash covers it.
	StateReadyToSubmit State = "ready_to_submit"
	// StateSubmitting: the order is on its way to the fulfillment service.
	StateSubmitting State = "submitting"
	// StateSubmitted: the order was accepted and the receipt waits to be
	// printed.
	StateSubmitted State = "submitted"
)

// Pending reports whether a receipt is being issued or waits to be printed.
// The cart and the cash are frozen while it is.
func (s State) Pending() bool {
	return s == StateSubmitting || s == StateSubmitted
}

// Snapshot is an immutable copy of the session for observers and the API.
type Snapshot struct {
	Version        uint64           `json:"version"`
	State          State            `json:"state"`
	Keyword        string           `json:"keyword"`
	Items          []cart.LineItem  `json:"items"`
	Count          int              `json:"count"`
	Cash           float64          `json:"cash"`
	Total          float64          `json:"total"`
	Change         float64          `json:"change"`
	Submitable     bool             `json:"submitable"`
	Receipt        *receipt.Receipt `json:"receipt,omitempty"`
	ReceiptVisible bool             `json:"receiptVisible"`
	LastCue        audio.Cue        `json:"lastCue,omitempty"`
	Denominations  []float64        `json:"denominations"`
	FirstTime      bool             `json:"firstTime"`
}

// Submission is the outcome of a successful Submit.
type Submission struct {
	Receipt receipt.Receipt `json:"receipt"`
	Order   order.Order     `json:"order"`
	Ack     order.Ack       `json:"ack"`
}
