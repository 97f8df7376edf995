package services

import (
	"context"
	"fmt"

	"billweave-backend/billing"
	"billweave-backend/models"
	"billweave-backend/policy"
	"billweave-backend/store"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderService struct {
	Resource[models.Order, *models.Order]
}

func NewOrderService(db *gorm.DB, roles policy.RoleResolver, now Clock) *OrderService {
	return &OrderService{newResource[models.Order, *models.Order](db, roles, store.NewestFirst, now)}
}

func (s *OrderService) Create(ctx context.Context, order *models.Order, ownerID string) (string, error) {
	if order.Status == "" {
		order.Status = models.OrderPending
	}
	if !order.Status.Valid() {
		return "", fmt.Errorf("%w: unknown order status %q", ErrInvalidInput, order.Status)
	}
	if len(order.Items) > 0 {
		order.Items = billing.PriceItems(order.Items)
		// An order copied from a bill keeps the bill total, tax included.
		if order.Total.IsZero() {
			order.Total = sumItems(order.Items)
		}
	}
	return s.Resource.Create(ctx, order, ownerID)
}

// Update accepts []models.LineItem under "items"; the items are repriced and
// the order total follows them.
func (s *OrderService) Update(ctx context.Context, id string, fields map[string]any, actingUserID string) error {
	if st, ok := fields["status"]; ok {
		status, _ := st.(models.OrderStatus)
		if !status.Valid() {
			return fmt.Errorf("%w: unknown order status %v", ErrInvalidInput, st)
		}
	}
	if raw, ok := fields["items"]; ok {
		items, ok := raw.([]models.LineItem)
		if !ok {
			return fmt.Errorf("%w: items", ErrInvalidInput)
		}
		priced := billing.PriceItems(items)
		fields["items"] = datatypes.JSONSlice[models.LineItem](priced)
		fields["total"] = sumItems(priced)
	}
	return s.Resource.Update(ctx, id, fields, actingUserID)
}

// UpdateStatus moves an order to status. Any status may follow any other.
func (s *OrderService) UpdateStatus(ctx context.Context, id string, status models.OrderStatus, actingUserID string) error {
	return s.Update(ctx, id, map[string]any{"status": status}, actingUserID)
}

func sumItems(items []models.LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Total)
	}
	return total
}
