package lineitem

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rl1809/po-watcher/internal/core/domain"
)

// Coerced is a raw record with its numeric fields parsed.
type Coerced struct {
	Name        string
	Description string
	Quantity    int
	Rate        decimal.Decimal
}

// Coerce parses the quantity and price of r. Quantity tolerates a trailing
// "bags" unit and thousands commas; price tolerates a "$" symbol.
func Coerce(r domain.RawItemRecord) (Coerced, error) {
	qty, err := ParseQuantity(r.Quantity)
	if err != nil {
		return Coerced{}, fmt.Errorf("%s: %w", r.ItemNumber, err)
	}
	rate, err := ParsePrice(r.Price)
	if err != nil {
		return Coerced{}, fmt.Errorf("%s: %w", r.ItemNumber, err)
	}
	return Coerced{
		Name:        stripCR(r.Name),
		Description: stripCR(r.Description),
		Quantity:    qty,
		Rate:        rate,
	}, nil
}

func ParseQuantity(raw string) (int, error) {
	s := stripCR(raw)
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "bags"))
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, fmt.Errorf("%w: empty quantity", domain.ErrCoercion)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: quantity %q", domain.ErrCoercion, raw)
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative quantity %q", domain.ErrCoercion, raw)
	}
	return n, nil
}

func ParsePrice(raw string) (decimal.Decimal, error) {
	s := strings.ReplaceAll(stripCR(raw), "$", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: empty price", domain.ErrCoercion)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: price %q", domain.ErrCoercion, raw)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: negative price %q", domain.ErrCoercion, raw)
	}
	return d, nil
}

func stripCR(s string) string {
	return strings.ReplaceAll(s, "\r", "")
}
