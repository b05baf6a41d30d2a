package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Cart is the mutable pre-purchase collection for one shopping session.
// Subtotal, total and quantity are derived columns, recomputed from the full
// line set inside the same transaction as every line write.
type Cart struct {
	ID             string     `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         *string    `gorm:"index" json:"user_id,omitempty"`
	Currency       string     `gorm:"type:varchar(3);default:'KES'" json:"currency"`
	SubtotalAmount float64    `json:"subtotal_amount"`
	TotalAmount    float64    `json:"total_amount"`
	TotalQuantity  int        `json:"total_quantity"`
	Lines          []CartLine `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"lines"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (c *Cart) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// CartLine holds one variant in a cart. The snapshot columns are advisory
// display data captured at the time of last mutation, not authoritative
// pricing; untouched lines keep their older snapshot.
type CartLine struct {
	ID              string  `gorm:"type:uuid;primaryKey" json:"id"`
	CartID          string  `gorm:"uniqueIndex:idx_cart_variant;not null" json:"cart_id"`
	VariantID       string  `gorm:"uniqueIndex:idx_cart_variant;not null" json:"variant_id"`
	Quantity        int     `json:"quantity"`
	UnitPriceAmount float64 `json:"unit_price_amount"`
	LineTotalAmount float64 `json:"line_total_amount"`
	Currency        string  `gorm:"type:varchar(3)" json:"currency"`

	// Merchandise snapshot
	ProductID       string `json:"product_id"`
	ProductTitle    string `json:"product_title"`
	VariantTitle    string `json:"variant_title"`
	SKU             string `json:"sku"`
	SelectedOptions string `json:"selected_options,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (l *CartLine) BeforeCreate(tx *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// CartTotals sums the derived cart columns from the line set. Callers must
// pass the full, freshly-read set of lines for the cart, never a cached one.
func CartTotals(lines []CartLine) (subtotal float64, quantity int) {
	for _, l := range lines {
		subtotal += l.LineTotalAmount
		quantity += l.Quantity
	}
	return subtotal, quantity
}
