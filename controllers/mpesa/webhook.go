package mpesaControllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	orderControllers "github.com/lizmart/storefront-api/controllers/order"
	"github.com/lizmart/storefront-api/models"
	"github.com/lizmart/storefront-api/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// callbackEnvelope mirrors the provider's nested webhook body:
// {Body:{stkCallback:{..., CallbackMetadata:{Item:[{Name,Value}...]}}}}
type callbackEnvelope struct {
	Body struct {
		StkCallback *struct {
			MerchantRequestID string `json:"MerchantRequestID"`
			CheckoutRequestID string `json:"CheckoutRequestID"`
			ResultCode        int    `json:"ResultCode"`
			ResultDesc        string `json:"ResultDesc"`
			CallbackMetadata  *struct {
				Item []struct {
					Name  string      `json:"Name"`
					Value interface{} `json:"Value"`
				} `json:"Item"`
			} `json:"CallbackMetadata"`
		} `json:"stkCallback"`
	} `json:"Body"`
}

// CallbackResult is the strongly typed form of one webhook delivery.
type CallbackResult struct {
	MerchantRequestID string
	CheckoutRequestID string
	ResultCode        int
	ResultDesc        string
	Metadata          CallbackItems
}

// CallbackItems carries the parsed metadata name/value pairs.
type CallbackItems struct {
	Amount             float64
	MpesaReceiptNumber string
	TransactionDate    *time.Time
	PhoneNumber        string
}

// parseCallback validates the envelope and fails closed: a missing
// stkCallback object, an empty correlation id or an absent metadata item
// array all reject the delivery rather than silently defaulting.
func parseCallback(payload []byte) (*CallbackResult, error) {
	var env callbackEnvelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrMalformedCallback, err)
	}

	cb := env.Body.StkCallback
	if cb == nil {
		return nil, fmt.Errorf("%w: missing stkCallback", models.ErrMalformedCallback)
	}
	if cb.CheckoutRequestID == "" {
		return nil, fmt.Errorf("%w: missing CheckoutRequestID", models.ErrMalformedCallback)
	}
	if cb.CallbackMetadata == nil || cb.CallbackMetadata.Item == nil {
		return nil, fmt.Errorf("%w: missing callback metadata", models.ErrMalformedCallback)
	}

	result := &CallbackResult{
		MerchantRequestID: cb.MerchantRequestID,
		CheckoutRequestID: cb.CheckoutRequestID,
		ResultCode:        cb.ResultCode,
		ResultDesc:        cb.ResultDesc,
	}

	for _, item := range cb.CallbackMetadata.Item {
		switch item.Name {
		case "Amount":
			if v, ok := item.Value.(float64); ok {
				result.Metadata.Amount = v
			}
		case "MpesaReceiptNumber":
			result.Metadata.MpesaReceiptNumber = stringValue(item.Value)
		case "TransactionDate":
			if t, err := time.Parse("20060102150405", stringValue(item.Value)); err == nil {
				result.Metadata.TransactionDate = &t
			}
		case "PhoneNumber":
			result.Metadata.PhoneNumber = stringValue(item.Value)
		}
	}
	return result, nil
}

// stringValue renders a metadata value that may arrive as a JSON number or
// string. Numbers are formatted without an exponent; TransactionDate and
// PhoneNumber arrive as 12-plus digit integers.
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return fmt.Sprintf("%.0f", val)
	default:
		return ""
	}
}

// POST /payments/webhook
//
// Reconciles the gateway's asynchronous result against the stored attempt.
// Safe to invoke any number of times with the same payload: the callback row
// is keyed uniquely on the correlation identifier, and the order update is a
// pure set to a terminal state, so duplicate deliveries converge on the same
// outcome while an early delivery can still self-heal the order later.
func HandleWebhook(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		logger := util.GetLogger()

		payload, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.String(http.StatusBadRequest, "unreadable body")
			return
		}

		result, err := parseCallback(payload)
		if err != nil {
			logger.Warn("rejected malformed callback", zap.Error(err))
			c.String(http.StatusBadRequest, "Invalid MPESA callback body")
			return
		}

		var confirmed []models.Order
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := upsertCallback(tx, result); err != nil {
				return err
			}
			return applyResult(tx, result, &confirmed)
		})
		if err != nil {
			logger.Error("webhook processing failed",
				zap.String("checkout_request_id", result.CheckoutRequestID),
				zap.Error(err))
			c.String(http.StatusInternalServerError, "Internal Error")
			return
		}

		// Notification side effects happen after commit and never roll back
		// the payment-status update.
		for _, order := range confirmed {
			orderControllers.BroadcastOrderPaid(order)
		}

		c.String(http.StatusOK, "Callback processed")
	}
}

// upsertCallback enforces the at-most-one-row-per-correlation-id invariant.
// A placeholder written at initiation time is filled in with the first real
// result; once a result has been recorded, further deliveries change nothing.
func upsertCallback(tx *gorm.DB, result *CallbackResult) error {
	var existing models.StkCallback
	err := tx.Where("checkout_request_id = ?", result.CheckoutRequestID).First(&existing).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		cb := models.StkCallback{
			CheckoutRequestID: result.CheckoutRequestID,
			MerchantRequestID: result.MerchantRequestID,
			ResultCode:        result.ResultCode,
			ResultDesc:        result.ResultDesc,
			ResultReceived:    true,
			Metadata:          metadataRecord(result),
		}
		return tx.Create(&cb).Error
	case err != nil:
		return err
	case existing.ResultReceived:
		// Duplicate delivery; the status application below still runs so a
		// delivery that beat the order linking can self-heal it.
		return nil
	default:
		// Placeholder from the initiator: record the real result once.
		if err := tx.Model(&existing).Updates(map[string]interface{}{
			"result_code":     result.ResultCode,
			"result_desc":     result.ResultDesc,
			"result_received": true,
		}).Error; err != nil {
			return err
		}
		if meta := metadataRecord(result); meta != nil {
			meta.StkCallbackID = existing.ID
			return tx.Create(meta).Error
		}
		return nil
	}
}

func metadataRecord(result *CallbackResult) *models.CallbackMetadata {
	if result.ResultCode != 0 && result.Metadata.MpesaReceiptNumber == "" {
		// Failed attempts carry no settlement details worth a row.
		return nil
	}
	return &models.CallbackMetadata{
		Amount:             result.Metadata.Amount,
		MpesaReceiptNumber: result.Metadata.MpesaReceiptNumber,
		TransactionDate:    result.Metadata.TransactionDate,
		PhoneNumber:        result.Metadata.PhoneNumber,
	}
}

// applyResult moves every order stamped with the correlation identifier to
// its terminal payment state. The update is an idempotent set: applying it
// twice yields the same state. A cancelled order is never confirmed by a late
// capture; it is logged for manual reconciliation instead.
func applyResult(tx *gorm.DB, result *CallbackResult, confirmed *[]models.Order) error {
	logger := util.GetLogger()
	now := time.Now()

	if result.ResultCode == 0 {
		var cancelled int64
		if err := tx.Model(&models.Order{}).
			Where("stk_callback_id = ? AND status = ?", result.CheckoutRequestID, models.OrderStatusCancelled).
			Count(&cancelled).Error; err != nil {
			return err
		}
		if cancelled > 0 {
			logger.Error("capture received for cancelled order, manual refund needed",
				zap.String("checkout_request_id", result.CheckoutRequestID),
				zap.String("receipt", result.Metadata.MpesaReceiptNumber),
				zap.Int64("orders", cancelled))
		}

		if err := tx.Model(&models.Order{}).
			Where("stk_callback_id = ? AND status <> ?", result.CheckoutRequestID, models.OrderStatusCancelled).
			Updates(map[string]interface{}{
				"payment_status": models.PaymentStatusCaptured,
				"status":         models.OrderStatusConfirmed,
				"paid_at":        now,
				"updated_at":     now,
			}).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Payment{}).
			Where("checkout_request_id = ?", result.CheckoutRequestID).
			Updates(map[string]interface{}{
				"status":     models.PaymentStatusCaptured,
				"updated_at": now,
			}).Error; err != nil {
			return err
		}

		return tx.Preload("Items").Preload("ShippingAddress").
			Where("stk_callback_id = ?", result.CheckoutRequestID).
			Find(confirmed).Error
	}

	// Non-success: the payment failed or was cancelled by the payer. Order
	// status stays where it is; cancel-vs-retry is a human decision. CAPTURED
	// is terminal, so a conflicting late delivery never downgrades a settled
	// payment.
	if err := tx.Model(&models.Order{}).
		Where("stk_callback_id = ? AND payment_status <> ?",
			result.CheckoutRequestID, models.PaymentStatusCaptured).
		Updates(map[string]interface{}{
			"payment_status": models.PaymentStatusFailed,
			"updated_at":     now,
		}).Error; err != nil {
		return err
	}

	return tx.Model(&models.Payment{}).
		Where("checkout_request_id = ? AND status <> ?",
			result.CheckoutRequestID, models.PaymentStatusCaptured).
		Updates(map[string]interface{}{
			"status":     models.PaymentStatusFailed,
			"updated_at": now,
		}).Error
}
