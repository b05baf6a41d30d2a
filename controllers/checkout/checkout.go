package checkoutControllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	mpesaControllers "github.com/lizmart/storefront-api/controllers/mpesa"
	"github.com/lizmart/storefront-api/models"
	"github.com/lizmart/storefront-api/util"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CheckoutRequest struct {
	FullName    string  `json:"fullName" binding:"required"`
	Email       *string `json:"email" binding:"omitempty,email"`
	Phone       string  `json:"phone" binding:"required"`
	County      string  `json:"county" binding:"required"`
	Town        string  `json:"town" binding:"required"`
	MpesaNumber string  `json:"mpesaNumber" binding:"required"`
	UserID      *string `json:"userId"`
}

// orderNumberAttempts bounds the regenerate-on-collision loop.
const orderNumberAttempts = 5

// generateOrderNumber builds a human-legible order number. The uuid-derived
// suffix makes collisions unlikely; callers must still verify uniqueness and
// regenerate on conflict.
func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:8])
	return fmt.Sprintf("LM-%s-%s", now.Format("20060102"), suffix)
}

// buildOrderItems freezes the cart lines into order items. The copies, not
// the live lines, are authoritative from this point on.
func buildOrderItems(lines []models.CartLine) ([]models.OrderItem, float64, int) {
	items := make([]models.OrderItem, 0, len(lines))
	var subtotal float64
	var quantity int

	for _, line := range lines {
		snapshot, _ := json.Marshal(map[string]interface{}{
			"productId":       line.ProductID,
			"productTitle":    line.ProductTitle,
			"variantId":       line.VariantID,
			"variantTitle":    line.VariantTitle,
			"sku":             line.SKU,
			"selectedOptions": line.SelectedOptions,
		})
		items = append(items, models.OrderItem{
			ProductID:           line.ProductID,
			VariantID:           line.VariantID,
			ProductTitle:        line.ProductTitle,
			VariantTitle:        line.VariantTitle,
			SKU:                 line.SKU,
			SelectedOptions:     line.SelectedOptions,
			Quantity:            line.Quantity,
			UnitPriceAmount:     line.UnitPriceAmount,
			LineTotalAmount:     line.LineTotalAmount,
			Currency:            line.Currency,
			MerchandiseSnapshot: string(snapshot),
		})
		subtotal += line.LineTotalAmount
		quantity += line.Quantity
	}
	return items, subtotal, quantity
}

// createOrderFromCart converts the cart into an immutable order inside one
// transaction: shipping address, order row, frozen items, a pending payment
// record, and the cart's lines deleted with its derived totals zeroed. Totals
// are summed from the lines at this instant, never read from the cart's
// cached columns. Any failure rolls the whole conversion back.
//
// An order-number collision aborts the transaction and the whole conversion
// is retried with a fresh number. On Postgres a unique violation poisons the
// surrounding transaction, so the retry has to wrap the transaction rather
// than sit inside it.
func createOrderFromCart(db *gorm.DB, cartID string, req CheckoutRequest) (*models.Order, error) {
	var created models.Order

	var err error
	for attempt := 0; attempt < orderNumberAttempts; attempt++ {
		err = convertCartOnce(db, cartID, req, &created)
		if !errors.Is(err, models.ErrOrderNumberTaken) {
			break
		}
	}
	if err != nil {
		return nil, err
	}
	return &created, nil
}

func convertCartOnce(db *gorm.DB, cartID string, req CheckoutRequest, created *models.Order) error {
	return db.Transaction(func(tx *gorm.DB) error {
		var cart models.Cart
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Preload("Lines").First(&cart, "id = ?", cartID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.ErrCartNotFound
			}
			return err
		}
		if len(cart.Lines) == 0 {
			return models.ErrEmptyCart
		}

		userID := req.UserID
		if userID == nil {
			userID = cart.UserID
		}

		address := models.ShippingAddress{
			UserID:      userID,
			FullName:    req.FullName,
			Email:       req.Email,
			Phone:       req.Phone,
			County:      req.County,
			Town:        req.Town,
			MpesaNumber: req.MpesaNumber,
		}
		if err := tx.Create(&address).Error; err != nil {
			return err
		}

		items, subtotal, quantity := buildOrderItems(cart.Lines)
		now := time.Now()

		order := models.Order{
			UserID:            userID,
			Status:            models.OrderStatusPending,
			PaymentStatus:     models.PaymentStatusPending,
			Currency:          cart.Currency,
			SubtotalAmount:    subtotal,
			TotalAmount:       subtotal,
			TotalQuantity:     quantity,
			ShippingAddressID: address.ID,
			Items:             items,
			PlacedAt:          now,
		}

		// The unique constraint on order_number backstops the generator. A
		// colliding insert would abort the transaction, so a losing race maps
		// to ErrOrderNumberTaken and the caller retries the conversion.
		order.OrderNumber = generateOrderNumber(now)
		var n int64
		if err := tx.Model(&models.Order{}).
			Where("order_number = ?", order.OrderNumber).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return models.ErrOrderNumberTaken
		}
		if err := tx.Create(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return models.ErrOrderNumberTaken
			}
			return err
		}

		payment := models.Payment{
			OrderID:  order.ID,
			Provider: "mpesa",
			Method:   "stk_push",
			Amount:   order.TotalAmount,
			Currency: order.Currency,
			Status:   models.PaymentStatusPending,
		}
		if err := tx.Create(&payment).Error; err != nil {
			return err
		}

		if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartLine{}).Error; err != nil {
			return err
		}
		if err := tx.Model(&cart).Updates(map[string]interface{}{
			"subtotal_amount": 0,
			"total_amount":    0,
			"total_quantity":  0,
		}).Error; err != nil {
			return err
		}

		return tx.Preload("Items").Preload("Payments").Preload("ShippingAddress").
			First(created, "id = ?", order.ID).Error
	})
}

// POST /checkout/cart/:cartId
//
// Freezes the cart into an order, then asks the gateway to prompt the payer's
// phone. The response's redirectUrl reports "payment request sent", not
// "payment received"; confirmation arrives on the webhook.
func CheckoutCart(db *gorm.DB, client *mpesaControllers.Client, frontendURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID := c.Param("cartId")
		logger := util.GetLogger()
		failureURL := fmt.Sprintf("%s/checkout/failure?cartId=%s", frontendURL, cartID)

		var req CheckoutRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false, "message": "Invalid request body: " + err.Error(),
			})
			return
		}

		order, err := createOrderFromCart(db, cartID, req)
		if err != nil {
			// The transaction rolled back, so the cart is intact; the
			// failure page can send the shopper straight back to it.
			status := models.HTTPStatus(err)
			payload := gin.H{"success": false, "message": err.Error(), "redirectUrl": failureURL}
			if status >= http.StatusInternalServerError {
				payload["message"] = "Checkout failed"
				logger.Error("checkout failed", zap.String("cart_id", cartID), zap.Error(err))
			}
			c.JSON(status, payload)
			return
		}

		ack, err := mpesaControllers.InitiatePush(
			c.Request.Context(), db, client, req.MpesaNumber, order.TotalAmount, []string{order.ID})
		if err != nil {
			// The order exists and stays PENDING; the payment can be retried
			// without re-checking out.
			logger.Warn("push initiation failed after checkout",
				zap.String("order_id", order.ID), zap.Error(err))
			c.JSON(models.HTTPStatus(err), gin.H{
				"success":     false,
				"message":     "Order placed but payment request failed; retry the payment",
				"orderId":     order.ID,
				"redirectUrl": failureURL,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success":     true,
			"message":     "Checkout initiated",
			"redirectUrl": fmt.Sprintf("%s/checkout/success?orderId=%s", frontendURL, order.ID),
			"order":       order,
			"mpesaResult": ack,
		})
	}
}
