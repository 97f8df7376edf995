package services

import (
	"context"

	"billweave-backend/models"
	"billweave-backend/policy"
	"billweave-backend/store"

	"gorm.io/gorm"
)

type CustomerService struct {
	Resource[models.Customer, *models.Customer]
}

func NewCustomerService(db *gorm.DB, roles policy.RoleResolver, now Clock) *CustomerService {
	return &CustomerService{newResource[models.Customer, *models.Customer](db, roles, store.NewestFirst, now)}
}

func (s *CustomerService) Create(ctx context.Context, customer *models.Customer, ownerID string) (string, error) {
	if customer.Measurements.Data() == nil {
		customer.Measurements = models.NewMeasurements(nil)
	}
	return s.Resource.Create(ctx, customer, ownerID)
}

// Update accepts a plain Measurements value under "measurements" and stores
// it as the replacement mapping.
func (s *CustomerService) Update(ctx context.Context, id string, fields map[string]any, actingUserID string) error {
	if m, ok := fields["measurements"]; ok {
		switch v := m.(type) {
		case models.Measurements:
			fields["measurements"] = models.NewMeasurements(v)
		case map[string]*float64:
			fields["measurements"] = models.NewMeasurements(v)
		case nil:
			fields["measurements"] = models.NewMeasurements(nil)
		}
	}
	return s.Resource.Update(ctx, id, fields, actingUserID)
}
