package models

import (
	"time"

	"gorm.io/gorm"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Account is the application profile of an authenticated identity. Its ID is
// the identity id handed out by the identity provider, so the JWT subject and
// the createdBy owner field of every record are the same value.
type Account struct {
	ID        string     `json:"id" gorm:"primaryKey;size:36"`
	Email     string     `json:"email" gorm:"uniqueIndex;not null"`
	Name      string     `json:"name"`
	Phone     string     `json:"phone"`
	ShopName  string     `json:"shop_name"`
	Role      Role       `json:"role" gorm:"size:10;not null;default:user"`
	IsBlocked bool       `json:"is_blocked" gorm:"not null;default:false"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

func (a *Account) IsAdmin() bool {
	return a != nil && a.Role == RoleAdmin
}

func (a *Account) AfterFind(tx *gorm.DB) error {
	a.CreatedAt = utc(a.CreatedAt)
	a.UpdatedAt = utc(a.UpdatedAt)
	a.LastLogin = utcPtr(a.LastLogin)
	return nil
}
