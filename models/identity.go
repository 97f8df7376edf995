package models

import (
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ProviderPassword  = "password"
	ProviderFederated = "federated"
)

// Identity is a sign-in credential record owned by the identity provider.
// A password and a federated login for the same email share one identity.
type Identity struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash []byte    `json:"-"`
	Provider     string    `json:"provider" gorm:"size:16;not null"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (identity *Identity) BeforeCreate(tx *gorm.DB) (err error) {
	if identity.ID == "" {
		identity.ID = uuid.NewString()
	}
	return
}

func (identity *Identity) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		return err
	}
	identity.PasswordHash = hashedPassword
	return nil
}

func (identity *Identity) ComparePassword(password string) error {
	return bcrypt.CompareHashAndPassword(identity.PasswordHash, []byte(password))
}

// Session is one issued bearer token. Revoking it signs the holder out.
type Session struct {
	ID         string     `json:"id" gorm:"primaryKey;size:36"`
	IdentityID string     `json:"identity_id" gorm:"size:36;index;not null"`
	ExpiresAt  time.Time  `json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

func (session *Session) BeforeCreate(tx *gorm.DB) (err error) {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	return
}

func (session *Session) Active(now time.Time) bool {
	return session.RevokedAt == nil && now.Before(session.ExpiresAt)
}
