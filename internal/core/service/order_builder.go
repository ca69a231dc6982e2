package service

import (
	"context"
	"fmt"

	"github.com/rl1809/po-watcher/internal/core/domain"
	"github.com/rl1809/po-watcher/internal/port"
)

type OrderBuilder struct {
	orders   port.OrderRepository
	vendorID string
	policy   domain.PartialPolicy
}

func NewOrderBuilder(orders port.OrderRepository, vendorID string, policy domain.PartialPolicy) *OrderBuilder {
	if !policy.Valid() {
		policy = domain.PolicySubmitPartial
	}
	return &OrderBuilder{
		orders:   orders,
		vendorID: vendorID,
		policy:   policy,
	}
}

// Decide applies the partial-batch policy. It returns ErrPartialBatch when
// the batch has failures and the policy is to abort.
func (b *OrderBuilder) Decide(batch domain.ItemBatch) error {
	if len(batch.Failures) > 0 && b.policy == domain.PolicyAbort {
		return fmt.Errorf("%w: %d of %d items failed", domain.ErrPartialBatch,
			len(batch.Failures), len(batch.Failures)+len(batch.Resolved))
	}
	return nil
}

// Submit sends one purchase order for the configured vendor carrying items
// in the given order. An empty items slice is submitted as is.
func (b *OrderBuilder) Submit(ctx context.Context, items []domain.ResolvedLineItem) (*domain.CreatedOrder, error) {
	order := domain.PurchaseOrder{
		VendorID:  b.vendorID,
		LineItems: items,
	}

	created, err := b.orders.CreatePurchaseOrder(ctx, order)
	if err != nil {
		return nil, fmt.Errorf("submit purchase order: %w", kindError(domain.ErrOrderCreateFailed, err))
	}
	return created, nil
}
