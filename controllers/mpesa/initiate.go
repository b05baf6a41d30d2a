package mpesaControllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lizmart/storefront-api/models"
	"github.com/lizmart/storefront-api/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InitiatePush requests a push payment for the given orders and records the
// pending attempt. On success it persists the StkCallback placeholder row
// keyed by the correlation identifier before returning, so a webhook that
// races the acknowledgement is never dropped as "unknown correlation id",
// and stamps every given order with that identifier.
//
// A gateway failure leaves the orders' payment status untouched at PENDING;
// the caller may retry with a fresh push.
func InitiatePush(ctx context.Context, db *gorm.DB, client *Client, phone string, amount float64, orderIDs []string) (*STKPushResponse, error) {
	ack, raw, err := client.STKPush(ctx, phone, amount)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = db.Transaction(func(tx *gorm.DB) error {
		// The asynchronous result can beat this write; ON CONFLICT keeps the
		// transaction clean so the order stamping below still runs and a
		// duplicate delivery settles the orders. A raw unique-violation would
		// abort the whole transaction on Postgres.
		placeholder := models.StkCallback{
			CheckoutRequestID: ack.CheckoutRequestID,
			MerchantRequestID: ack.MerchantRequestID,
			ResultDesc:        ack.ResponseDescription,
		}
		if err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "checkout_request_id"}},
			DoNothing: true,
		}).Create(&placeholder).Error; err != nil {
			return err
		}

		if len(orderIDs) == 0 {
			return nil
		}

		var orders []models.Order
		if err := tx.Where("id IN ?", orderIDs).Find(&orders).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Order{}).
			Where("id IN ?", orderIDs).
			Updates(map[string]interface{}{
				"stk_callback_id": ack.CheckoutRequestID,
				"payment_status":  models.PaymentStatusPending,
				"updated_at":      now,
			}).Error; err != nil {
			return err
		}

		attemptID := ack.CheckoutRequestID
		for i := range orders {
			order := &orders[i]

			// Reuse the pending attempt checkout opened for this order, if
			// any; otherwise this push is a fresh attempt.
			var payment models.Payment
			err := tx.Where("order_id = ? AND checkout_request_id IS NULL AND status = ?",
				order.ID, models.PaymentStatusPending).First(&payment).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				payment = models.Payment{
					OrderID:  order.ID,
					Provider: "mpesa",
					Method:   "stk_push",
					Amount:   amount,
					Currency: order.Currency,
					Status:   models.PaymentStatusPending,
				}
			case err != nil:
				return err
			}

			payment.CheckoutRequestID = &attemptID
			payment.RawResponse = string(raw)
			if err := tx.Save(&payment).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	util.GetLogger().Info("stk push accepted",
		zap.String("checkout_request_id", ack.CheckoutRequestID),
		zap.Strings("order_ids", orderIDs),
		zap.Float64("amount", amount))
	return ack, nil
}

type RetryPaymentInput struct {
	MpesaNumber string `json:"mpesa_number" binding:"required"`
}

// POST /orders/:orderId/pay
//
// Re-issues a push for an order whose previous attempt failed or was never
// answered. A new correlation identifier is minted; the original attempt's
// eventual callback still reconciles against its own stored row.
func RetryPayment(db *gorm.DB, client *Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RetryPaymentInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var order models.Order
		if err := db.First(&order, "id = ?", c.Param("orderId")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": models.ErrOrderNotFound.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
			return
		}

		if order.PaymentStatus == models.PaymentStatusCaptured {
			c.JSON(http.StatusConflict, gin.H{"error": models.ErrPaymentSettled.Error()})
			return
		}
		if order.Status != models.OrderStatusPending {
			c.JSON(http.StatusConflict, gin.H{"error": models.ErrInvalidTransition.Error()})
			return
		}

		ack, err := InitiatePush(c.Request.Context(), db, client, input.MpesaNumber, order.TotalAmount, []string{order.ID})
		if err != nil {
			c.JSON(models.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message":      "payment request sent",
			"mpesa_result": ack,
		})
	}
}
