package service

import (
	"context"

	"orderflow/internal/entity"
	"orderflow/pkg/logger"
)

// reconcileInventory consumes stock for every line item of an order that is
// already durably written. Items are processed sequentially; a failed item
// is logged and skipped, never rolling back the order or blocking the rest.
func (s *IntakeService) reconcileInventory(ctx context.Context, order *entity.Order) {
	const op = "service.reconcileInventory"
	log := s.logger.Ctx(ctx)

	for _, item := range order.Items {
		if err := s.reconcileItem(ctx, item); err != nil {
			log.LogAttrs(ctx, logger.WarnLevel, "inventory reconciliation skipped item",
				logger.String("op", op),
				logger.String("order_number", order.OrderNumber),
				logger.String("product_id", item.ProductID),
				logger.Int("quantity", item.Quantity),
				logger.Any("error", err),
			)
		}
	}
}

func (s *IntakeService) reconcileItem(ctx context.Context, item *entity.OrderItem) error {
	ctx, cancel := context.WithTimeout(ctx, s.queryTimeout)
	defer cancel()

	product, err := s.productRepo.GetByID(ctx, item.ProductID)
	if err != nil {
		return err
	}

	if !product.HasVariants() {
		return s.productRepo.DecrementStock(ctx, product.ID, item.Quantity)
	}

	variant := product.FindVariant(item.VariantID, item.ProductSKU)
	if variant == nil {
		// Cannot tell which variant the item consumed.
		return entity.ErrDataNotFound
	}

	return s.productRepo.DecrementVariantStock(
		ctx,
		product.ID,
		variant.ID,
		variant.SKU,
		item.Quantity,
	)
}
