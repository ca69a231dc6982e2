package domain

import "github.com/shopspring/decimal"

type CatalogItem struct {
	ID   string
	Name string
}

// NewCatalogItem carries what the resolver knows about an item it has to
// create. Description and rate come from the same email record as the name.
type NewCatalogItem struct {
	Name        string
	Description string
	Rate        decimal.Decimal
}
