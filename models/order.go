package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderInProgress OrderStatus = "in_progress"
	OrderCompleted  OrderStatus = "completed"
	OrderDelivered  OrderStatus = "delivered"
)

// Valid reports whether s is a known status. Any status may move to any other.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderPending, OrderInProgress, OrderCompleted, OrderDelivered:
		return true
	}
	return false
}

// Active orders are the ones still in the workshop.
func (s OrderStatus) Active() bool {
	return s == OrderPending || s == OrderInProgress
}

type Order struct {
	ID            string                        `json:"id" gorm:"primaryKey;size:36"`
	BillID        string                        `json:"bill_id" gorm:"size:36;index"`
	BillNumber    string                        `json:"bill_number" gorm:"size:32"`
	CustomerID    string                        `json:"customer_id" gorm:"size:36;index"`
	CustomerName  string                        `json:"customer_name"`
	CustomerPhone string                        `json:"customer_phone"`
	Status        OrderStatus                   `json:"status" gorm:"size:16;not null;default:pending"`
	DueDate       time.Time                     `json:"due_date"`
	Items         datatypes.JSONSlice[LineItem] `json:"items"`
	Total         decimal.Decimal               `json:"total" gorm:"type:numeric"`
	Notes         string                        `json:"notes,omitempty"`
	CreatedBy     string                        `json:"created_by" gorm:"size:36;not null;index"`
	CreatedAt     time.Time                     `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time                     `json:"updated_at"`
}

func (order *Order) BeforeCreate(tx *gorm.DB) (err error) {
	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	return
}

func (order *Order) BeforeSave(tx *gorm.DB) (err error) {
	if order.Items == nil {
		order.Items = datatypes.JSONSlice[LineItem]{}
	}
	return
}

func (order *Order) AfterFind(tx *gorm.DB) (err error) {
	if order.Items == nil {
		order.Items = datatypes.JSONSlice[LineItem]{}
	}
	order.DueDate = utc(order.DueDate)
	order.CreatedAt = utc(order.CreatedAt)
	order.UpdatedAt = utc(order.UpdatedAt)
	return
}

func (order *Order) GetID() string        { return order.ID }
func (order *Order) GetCreatedBy() string { return order.CreatedBy }

func (order *Order) Stamp(ownerID string, now time.Time) {
	order.CreatedBy = ownerID
	order.CreatedAt = now
	order.UpdatedAt = now
}
