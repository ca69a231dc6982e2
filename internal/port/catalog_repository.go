package port

import (
	"context"

	"github.com/rl1809/po-watcher/internal/core/domain"
)

type CatalogRepository interface {
	// ListItems returns the complete catalog listing
	ListItems(ctx context.Context) ([]domain.CatalogItem, error)

	// CreateItem appends a new item to the catalog
	CreateItem(ctx context.Context, item domain.NewCatalogItem) (*domain.CatalogItem, error)
}

type OrderRepository interface {
	// CreatePurchaseOrder submits an order and returns the service's representation of it
	CreatePurchaseOrder(ctx context.Context, order domain.PurchaseOrder) (*domain.CreatedOrder, error)
}
