// Package lineitem extracts purchase-order line items from a plain-text
// email body.
//
// The body is a sequence of label lines:
//
//	Item 1: Cement
//	Quantity: 500 bags
//	Description: Grade A
//	Price per item: $5.00
//	Total price: $2500.00
//
// Every "Item " line opens a new record; the label lines after it fill
// that record in until the next "Item " line. Anything else is ignored.
package lineitem

import (
	"fmt"
	"strings"

	"github.com/rl1809/po-watcher/internal/core/domain"
)

const separator = ": "

type field int

const (
	fieldQuantity field = iota
	fieldDescription
	fieldPrice
	fieldTotalPrice
)

// labels are matched in order; the first prefix that fits wins.
var labels = []struct {
	prefix string
	field  field
}{
	{"Quantity", fieldQuantity},
	{"Description", fieldDescription},
	{"Price per item", fieldPrice},
	{"Total price", fieldTotalPrice},
	{"Total purchase price", fieldTotalPrice},
}

// Parse returns the records in the order their "Item " lines appear. It
// fails on a label line that comes before any item line or that lacks the
// ": " separator; no records are returned in that case.
func Parse(text string) ([]domain.RawItemRecord, error) {
	var records []domain.RawItemRecord
	current := -1

	for n, line := range strings.Split(text, "\n") {
		lineNo := n + 1

		if strings.HasPrefix(line, "Item ") {
			label, value, ok := strings.Cut(line, separator)
			if !ok {
				return nil, fmt.Errorf("line %d: %w", lineNo, domain.ErrMissingSeparator)
			}
			records = append(records, domain.RawItemRecord{ItemNumber: label, Name: value})
			current = len(records) - 1
			continue
		}

		f, ok := matchLabel(line)
		if !ok {
			continue
		}
		if current < 0 {
			return nil, fmt.Errorf("line %d: %w", lineNo, domain.ErrNoActiveItem)
		}
		_, value, ok := strings.Cut(line, separator)
		if !ok {
			return nil, fmt.Errorf("line %d: %w", lineNo, domain.ErrMissingSeparator)
		}
		set(&records[current], f, value)
	}

	return records, nil
}

func matchLabel(line string) (field, bool) {
	for _, l := range labels {
		if strings.HasPrefix(line, l.prefix) {
			return l.field, true
		}
	}
	return 0, false
}

func set(r *domain.RawItemRecord, f field, value string) {
	switch f {
	case fieldQuantity:
		r.Quantity = value
	case fieldDescription:
		r.Description = value
	case fieldPrice:
		r.Price = value
	case fieldTotalPrice:
		r.TotalPrice = value
	}
}
