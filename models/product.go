package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID            string           `gorm:"type:uuid;primaryKey" json:"id"`
	Title         string           `gorm:"not null" json:"title"`
	Handle        string           `gorm:"uniqueIndex" json:"handle"`
	Description   string           `json:"description"`
	FeaturedImage string           `json:"featured_image,omitempty"`
	Variants      []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"variants"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
	DeletedAt     gorm.DeletedAt   `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

type ProductVariant struct {
	ID            string  `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID     string  `gorm:"index;not null" json:"product_id"`
	Product       Product `gorm:"foreignKey:ProductID" json:"-"`
	Title         string  `json:"title"`
	SKU           string  `gorm:"index" json:"sku"`
	PriceAmount   float64 `gorm:"not null" json:"price_amount"`
	PriceCurrency string  `gorm:"type:varchar(3);default:'KES'" json:"price_currency"`
	// JSON object of option name -> value, e.g. {"Size":"500ml"}
	SelectedOptions string    `json:"selected_options,omitempty"`
	Stock           int       `json:"stock"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (v *ProductVariant) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	return nil
}
