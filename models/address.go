package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ShippingAddress is a plain value record referenced by orders; it is written
// once at checkout and never mutated afterwards.
type ShippingAddress struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      *string   `gorm:"index" json:"user_id,omitempty"`
	FullName    string    `gorm:"not null" json:"full_name"`
	Email       *string   `json:"email,omitempty"`
	Phone       string    `gorm:"not null" json:"phone"`
	County      string    `gorm:"not null" json:"county"`
	Town        string    `gorm:"not null" json:"town"`
	MpesaNumber string    `gorm:"not null" json:"mpesa_number"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *ShippingAddress) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
