package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Measurements maps a named body dimension (chest, waist, inseam, ...) to an
// optional value. Units are implicit.
type Measurements map[string]*float64

type Customer struct {
	ID           string                          `json:"id" gorm:"primaryKey;size:36"`
	Name         string                          `json:"name" gorm:"not null"`
	Phone        string                          `json:"phone" gorm:"not null"`
	Email        string                          `json:"email,omitempty"`
	Address      string                          `json:"address,omitempty"`
	Measurements datatypes.JSONType[Measurements] `json:"measurements"`
	CreatedBy    string                          `json:"created_by" gorm:"size:36;index;not null"`
	CreatedAt    time.Time                       `json:"created_at"`
	UpdatedAt    time.Time                       `json:"updated_at"`
}

func NewMeasurements(m Measurements) datatypes.JSONType[Measurements] {
	if m == nil {
		m = Measurements{}
	}
	return datatypes.NewJSONType(m)
}

func (customer *Customer) BeforeCreate(tx *gorm.DB) (err error) {
	if customer.ID == "" {
		customer.ID = uuid.NewString()
	}
	return
}

// BeforeSave keeps the measurements mapping present; it is never stored as null.
func (customer *Customer) BeforeSave(tx *gorm.DB) (err error) {
	if customer.Measurements.Data() == nil {
		customer.Measurements = NewMeasurements(nil)
	}
	return
}

func (customer *Customer) AfterFind(tx *gorm.DB) (err error) {
	if customer.Measurements.Data() == nil {
		customer.Measurements = NewMeasurements(nil)
	}
	customer.CreatedAt = utc(customer.CreatedAt)
	customer.UpdatedAt = utc(customer.UpdatedAt)
	return
}

func (customer *Customer) GetID() string        { return customer.ID }
func (customer *Customer) GetCreatedBy() string { return customer.CreatedBy }

func (customer *Customer) Stamp(ownerID string, now time.Time) {
	customer.CreatedBy = ownerID
	customer.CreatedAt = now
	customer.UpdatedAt = now
}
