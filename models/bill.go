package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
	PaymentPartial PaymentStatus = "partial"
)

func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPaid, PaymentPending, PaymentPartial:
		return true
	}
	return false
}

// LineItem is embedded in bills and copied into orders; it has no table of its own.
type LineItem struct {
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Total    decimal.Decimal `json:"total"`
}

// Bill carries a denormalized customer snapshot. Subtotal, Tax, Total and
// AmountDue are derived from Items, TaxPercentage and AmountPaid and are only
// ever written by the billing computation.
type Bill struct {
	ID            string                        `json:"id" gorm:"primaryKey;size:36"`
	BillNumber    string                        `json:"bill_number" gorm:"size:32;not null;uniqueIndex:idx_bills_owner_number,priority:2"`
	CustomerID    string                        `json:"customer_id" gorm:"size:36;not null;index"`
	CustomerName  string                        `json:"customer_name"`
	CustomerPhone string                        `json:"customer_phone"`
	Items         datatypes.JSONSlice[LineItem] `json:"items"`
	Subtotal      decimal.Decimal               `json:"subtotal" gorm:"type:numeric"`
	TaxPercentage decimal.Decimal               `json:"tax_percentage" gorm:"type:numeric"`
	Tax           decimal.Decimal               `json:"tax" gorm:"type:numeric"`
	Total         decimal.Decimal               `json:"total" gorm:"type:numeric"`
	PaymentStatus PaymentStatus                 `json:"payment_status" gorm:"size:10;not null;default:pending"`
	AmountPaid    decimal.Decimal               `json:"amount_paid" gorm:"type:numeric"`
	AmountDue     decimal.Decimal               `json:"amount_due" gorm:"type:numeric"`
	Notes         string                        `json:"notes,omitempty"`
	CreatedBy     string                        `json:"created_by" gorm:"size:36;not null;index;uniqueIndex:idx_bills_owner_number,priority:1"`
	CreatedAt     time.Time                     `json:"created_at" gorm:"index"`
	UpdatedAt     time.Time                     `json:"updated_at"`
}

func (bill *Bill) BeforeCreate(tx *gorm.DB) (err error) {
	if bill.ID == "" {
		bill.ID = uuid.NewString()
	}
	return
}

func (bill *Bill) BeforeSave(tx *gorm.DB) (err error) {
	if bill.Items == nil {
		bill.Items = datatypes.JSONSlice[LineItem]{}
	}
	return
}

func (bill *Bill) AfterFind(tx *gorm.DB) (err error) {
	if bill.Items == nil {
		bill.Items = datatypes.JSONSlice[LineItem]{}
	}
	bill.CreatedAt = utc(bill.CreatedAt)
	bill.UpdatedAt = utc(bill.UpdatedAt)
	return
}

func (bill *Bill) GetID() string        { return bill.ID }
func (bill *Bill) GetCreatedBy() string { return bill.CreatedBy }

func (bill *Bill) Stamp(ownerID string, now time.Time) {
	bill.CreatedBy = ownerID
	bill.CreatedAt = now
	bill.UpdatedAt = now
}

// BillSequence is the last bill number handed out in one visibility scope
// (an owner id, or ScopeAll for admins).
type BillSequence struct {
	Scope     string    `gorm:"primaryKey;size:36"`
	LastValue int       `gorm:"not null"`
	UpdatedAt time.Time
}

const ScopeAll = "*"
