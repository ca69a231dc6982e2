package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// RawItemRecord is one item as written in the email body, before any
// numeric coercion.
type RawItemRecord struct {
	ItemNumber  string `json:"item_number"`
	Name        string `json:"name"`
	Quantity    string `json:"quantity,omitempty"`
	Description string `json:"description,omitempty"`
	Price       string `json:"price,omitempty"`
	TotalPrice  string `json:"total_price,omitempty"`
}

type ResolvedLineItem struct {
	CatalogItemID string
	Quantity      int
	Rate          decimal.Decimal
}

type PurchaseOrder struct {
	VendorID  string
	LineItems []ResolvedLineItem
}

// CreatedOrder is the order service's representation of a submitted
// purchase order.
type CreatedOrder struct {
	ID     string
	Number string
	Raw    json.RawMessage
}

// ItemFailure records why a single raw item did not make it into the order.
type ItemFailure struct {
	Record RawItemRecord
	Err    error
}

// ItemBatch is the per-message accumulator: every raw item ends up in
// exactly one of the two slices.
type ItemBatch struct {
	Resolved []ResolvedLineItem
	Failures []ItemFailure
}

func (b *ItemBatch) Add(item ResolvedLineItem) {
	b.Resolved = append(b.Resolved, item)
}

func (b *ItemBatch) Fail(record RawItemRecord, err error) {
	b.Failures = append(b.Failures, ItemFailure{Record: record, Err: err})
}

// PartialPolicy decides what happens to an order when some of its items
// could not be coerced or resolved.
type PartialPolicy string

const (
	PolicySubmitPartial PartialPolicy = "submit_partial"
	PolicyAbort         PartialPolicy = "abort"
)

func (p PartialPolicy) Valid() bool {
	return p == PolicySubmitPartial || p == PolicyAbort
}
