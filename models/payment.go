package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Payment records one push-payment attempt against an order. Orders may
// accumulate several attempts; only one may end up CAPTURED.
type Payment struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID  string `gorm:"index;not null" json:"order_id"`
	Provider string `gorm:"type:varchar(20)" json:"provider"`
	Method   string `gorm:"type:varchar(20)" json:"method"`
	// Provider-side attempt identifier, nil until the gateway acknowledges.
	CheckoutRequestID *string       `gorm:"index" json:"checkout_request_id,omitempty"`
	Amount            float64       `json:"amount"`
	Currency          string        `gorm:"type:varchar(3)" json:"currency"`
	Status            PaymentStatus `gorm:"type:varchar(20);default:'PENDING'" json:"status"`
	RawResponse       string        `json:"raw_response,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// StkCallback is the append-only record of one push-payment attempt's
// asynchronous result, keyed uniquely by the provider's correlation
// identifier. The unique key is the system's idempotency boundary: at most
// one row ever exists per CheckoutRequestID. A placeholder row is written by
// the payment initiator before the provider can deliver the real result.
type StkCallback struct {
	ID                string `gorm:"type:uuid;primaryKey" json:"id"`
	CheckoutRequestID string `gorm:"uniqueIndex;not null" json:"checkout_request_id"`
	MerchantRequestID string `json:"merchant_request_id"`
	ResultCode        int    `json:"result_code"`
	ResultDesc        string `json:"result_desc"`
	// ResultReceived flips when the asynchronous result (not the synchronous
	// acknowledgement) has been applied; duplicates after that are pure skips.
	ResultReceived bool              `json:"result_received"`
	Metadata       *CallbackMetadata `gorm:"foreignKey:StkCallbackID;constraint:OnDelete:CASCADE" json:"metadata,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
	UpdatedAt      time.Time         `json:"updated_at"`
}

func (s *StkCallback) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// CallbackMetadata is the strongly typed form of the provider's
// name/value metadata item array.
type CallbackMetadata struct {
	ID                 string     `gorm:"type:uuid;primaryKey" json:"id"`
	StkCallbackID      string     `gorm:"uniqueIndex;not null" json:"stk_callback_id"`
	Amount             float64    `json:"amount"`
	MpesaReceiptNumber string     `json:"mpesa_receipt_number"`
	TransactionDate    *time.Time `json:"transaction_date,omitempty"`
	PhoneNumber        string     `json:"phone_number"`
	CreatedAt          time.Time  `json:"created_at"`
}

func (m *CallbackMetadata) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
