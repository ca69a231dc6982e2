package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/rl1809/po-watcher/internal/core/domain"
	"github.com/rl1809/po-watcher/internal/port"
)

// CatalogResolver maps item names to catalog ids, creating catalog entries
// for names it cannot find.
//
// There is no locking: two concurrent Resolve calls that both miss may both
// create an entry. Callers that need strict deduplication must serialize
// resolution per name.
type CatalogResolver struct {
	catalog port.CatalogRepository
	logger  *slog.Logger
}

func NewCatalogResolver(catalog port.CatalogRepository, logger *slog.Logger) *CatalogResolver {
	return &CatalogResolver{catalog: catalog, logger: logger}
}

// Lookup scans the full catalog listing for an exact name match. The first
// match wins.
func (r *CatalogResolver) Lookup(ctx context.Context, name string) (string, bool, error) {
	items, err := r.catalog.ListItems(ctx)
	if err != nil {
		return "", false, kindError(domain.ErrCatalogLookupFailed, err)
	}
	for _, item := range items {
		if item.Name == name {
			return item.ID, true, nil
		}
	}
	return "", false, nil
}

// Resolve returns the catalog id for name. On a miss it creates the item
// with the given description and rate and reports created=true.
func (r *CatalogResolver) Resolve(ctx context.Context, name, description string, rate decimal.Decimal) (id string, created bool, err error) {
	id, found, err := r.Lookup(ctx, name)
	if err != nil {
		return "", false, err
	}
	if found {
		return id, false, nil
	}

	r.logger.Info("catalog item not found, creating", "name", name, "rate", rate.String())
	item, err := r.catalog.CreateItem(ctx, domain.NewCatalogItem{
		Name:        name,
		Description: description,
		Rate:        rate,
	})
	if err != nil {
		return "", false, fmt.Errorf("create catalog item %q: %w", name, kindError(domain.ErrCatalogCreateFailed, err))
	}
	return item.ID, true, nil
}

// kindError makes sure err matches kind with errors.Is. Adapters already
// tag upstream failures; transport errors arrive untagged.
func kindError(kind, err error) error {
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}
