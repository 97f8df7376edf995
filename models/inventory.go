package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InventoryType string

const (
	InventoryFabric    InventoryType = "fabric"
	InventoryService   InventoryType = "service"
	InventoryAccessory InventoryType = "accessory"
)

func (t InventoryType) Valid() bool {
	switch t {
	case InventoryFabric, InventoryService, InventoryAccessory:
		return true
	}
	return false
}

type InventoryItem struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	Name        string          `json:"name" gorm:"not null;index"`
	Type        InventoryType   `json:"type" gorm:"size:16;not null"`
	Quantity    decimal.Decimal `json:"quantity" gorm:"type:numeric"`
	Unit        string          `json:"unit"`
	Price       decimal.Decimal `json:"price" gorm:"type:numeric"`
	Description string          `json:"description,omitempty"`
	CreatedBy   string          `json:"created_by" gorm:"size:36;not null;index"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (item *InventoryItem) BeforeCreate(tx *gorm.DB) (err error) {
	// UUID version 4
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	return
}

func (item *InventoryItem) AfterFind(tx *gorm.DB) (err error) {
	item.CreatedAt = utc(item.CreatedAt)
	item.UpdatedAt = utc(item.UpdatedAt)
	return
}

func (item *InventoryItem) GetID() string        { return item.ID }
func (item *InventoryItem) GetCreatedBy() string { return item.CreatedBy }

func (item *InventoryItem) Stamp(ownerID string, now time.Time) {
	item.CreatedBy = ownerID
	item.CreatedAt = now
	item.UpdatedAt = now
}
