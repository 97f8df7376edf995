package services

import (
	"billweave-backend/models"
	"billweave-backend/policy"
	"billweave-backend/store"

	"gorm.io/gorm"
)

// InventoryService lists by name rather than by age.
type InventoryService struct {
	Resource[models.InventoryItem, *models.InventoryItem]
}

func NewInventoryService(db *gorm.DB, roles policy.RoleResolver, now Clock) *InventoryService {
	return &InventoryService{newResource[models.InventoryItem, *models.InventoryItem](db, roles, store.ByName, now)}
}
