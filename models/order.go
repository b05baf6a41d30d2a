package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OrderStatus string
type PaymentStatus string

const (
	// Order statuses
	OrderStatusPending   OrderStatus = "PENDING"   // Placed, awaiting payment
	OrderStatusConfirmed OrderStatus = "CONFIRMED" // Payment captured
	OrderStatusFulfilled OrderStatus = "FULFILLED" // Packed and handed to carrier
	OrderStatusDelivered OrderStatus = "DELIVERED" // Customer received the items
	OrderStatusCancelled OrderStatus = "CANCELLED" // Cancelled (administrative)

	// Payment statuses
	PaymentStatusPending  PaymentStatus = "PENDING"
	PaymentStatusCaptured PaymentStatus = "CAPTURED"
	PaymentStatusFailed   PaymentStatus = "FAILED"
)

// CanTransitionTo reports whether an order may move from s to next.
// Cancellation is allowed from any non-cancelled state; a cancelled order is
// terminal and in particular must never be confirmed by a late capture.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	if s == OrderStatusCancelled {
		return false
	}
	if next == OrderStatusCancelled {
		return true
	}
	switch s {
	case OrderStatusPending:
		return next == OrderStatusConfirmed
	case OrderStatusConfirmed:
		return next == OrderStatusFulfilled
	case OrderStatusFulfilled:
		return next == OrderStatusDelivered
	default:
		return false
	}
}

// CanTransitionTo reports whether a payment may move from s to next.
// CAPTURED is terminal; a FAILED attempt may go back to PENDING when the
// caller issues a fresh push.
func (s PaymentStatus) CanTransitionTo(next PaymentStatus) bool {
	switch s {
	case PaymentStatusPending:
		return next == PaymentStatusCaptured || next == PaymentStatusFailed
	case PaymentStatusFailed:
		return next == PaymentStatusPending || next == PaymentStatusCaptured
	default:
		return false
	}
}

// ParseOrderStatus validates an admin-supplied status string.
func ParseOrderStatus(s string) (OrderStatus, error) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusFulfilled,
		OrderStatusDelivered, OrderStatusCancelled:
		return OrderStatus(s), nil
	default:
		return "", ErrInvalidTransition
	}
}

// ParsePaymentStatus validates an admin-supplied payment status string.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	switch PaymentStatus(s) {
	case PaymentStatusPending, PaymentStatusCaptured, PaymentStatusFailed:
		return PaymentStatus(s), nil
	default:
		return "", ErrInvalidTransition
	}
}

// Order is immutable after creation except for status, timestamps and notes.
// Items are frozen copies of the cart lines at conversion time, so historical
// orders stay accurate when the catalog changes.
type Order struct {
	ID                string          `gorm:"type:uuid;primaryKey" json:"id"`
	OrderNumber       string          `gorm:"uniqueIndex;not null" json:"order_number"`
	UserID            *string         `gorm:"index" json:"user_id,omitempty"`
	Status            OrderStatus     `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	PaymentStatus     PaymentStatus   `gorm:"type:varchar(20);default:'PENDING'" json:"payment_status"`
	Currency          string          `gorm:"type:varchar(3);not null" json:"currency"`
	SubtotalAmount    float64         `json:"subtotal_amount"`
	ShippingAmount    float64         `json:"shipping_amount"`
	TaxAmount         float64         `json:"tax_amount"`
	TotalAmount       float64         `json:"total_amount"`
	TotalQuantity     int             `json:"total_quantity"`
	ShippingAddressID string          `gorm:"index" json:"shipping_address_id"`
	ShippingAddress   ShippingAddress `gorm:"foreignKey:ShippingAddressID" json:"shipping_address"`
	// Correlation identifier of the in-flight push payment, stamped by the
	// payment initiator and matched by the webhook reconciler.
	StkCallbackID *string     `gorm:"index" json:"stk_callback_id,omitempty"`
	Items         []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`
	Payments      []Payment   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"payments"`
	Notes         string      `json:"notes,omitempty"`
	PlacedAt      time.Time   `json:"placed_at"`
	PaidAt        *time.Time  `json:"paid_at,omitempty"`
	CancelledAt   *time.Time  `json:"cancelled_at,omitempty"`
	FulfilledAt   *time.Time  `json:"fulfilled_at,omitempty"`
	DeliveredAt   *time.Time  `json:"delivered_at,omitempty"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = uuid.NewString()
	}
	return nil
}

type OrderItem struct {
	ID              string  `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID         string  `gorm:"index;not null" json:"order_id"`
	ProductID       string  `json:"product_id"`
	VariantID       string  `json:"variant_id"`
	ProductTitle    string  `json:"product_title"`
	VariantTitle    string  `json:"variant_title"`
	SKU             string  `json:"sku"`
	SelectedOptions string  `json:"selected_options,omitempty"`
	Quantity        int     `json:"quantity"`
	UnitPriceAmount float64 `json:"unit_price_amount"`
	LineTotalAmount float64 `json:"line_total_amount"`
	Currency        string  `gorm:"type:varchar(3)" json:"currency"`
	// Raw merchandise snapshot JSON copied verbatim from the cart line.
	MerchandiseSnapshot string    `json:"merchandise_snapshot,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

func (i *OrderItem) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
