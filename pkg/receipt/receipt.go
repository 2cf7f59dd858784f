// Package receipt stamps a submitted transaction with its receipt number and
// display date.
package receipt

import (
	"strconv"
	"time"
)

const (
	// DefaultPrefix starts every receipt number.
	DefaultPrefix = "TWPOS-KS-"
	// DefaultDateLayout is the short Indonesian date and time style, e.g.
	// "15/10/26 14.05".
	DefaultDateLayout = "02/01/06 15.04"
)

// Receipt identifies one submission.
type Receipt struct {
	Number   string    `json:"receiptNo"`
	Date     string    `json:"receiptDate"`
	IssuedAt time.Time `json:"issuedAt"`
}

// Generator builds receipts. The zero value uses the defaults in the local
// time zone.
type Generator struct {
	Prefix     string
	DateLayout string
	Location   *time.Location
}

// Generate returns the receipt for a submission at now. The number is the
// prefix followed by the whole Unix seconds of now, so two calls with the
// same instant agree and calls a second or more apart differ.
func (g Generator) Generate(now time.Time) Receipt {
	prefix := g.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	layout := g.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	loc := g.Location
	if loc == nil {
		loc = time.Local
	}
	return Receipt{
		Number:   prefix + strconv.FormatInt(now.Unix(), 10),
		Date:     now.In(loc).Format(layout),
		IssuedAt: now,
	}
}
