package orderControllers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lizmart/storefront-api/models"
	"gorm.io/gorm"
)

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Notes  string `json:"notes"`
}

type UpdatePaymentStatusRequest struct {
	PaymentStatus string `json:"payment_status" binding:"required"`
}

// GET /orders/:orderId
func GetOrder(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var order models.Order
		err := db.Preload("Items").Preload("Payments").Preload("ShippingAddress").
			First(&order, "id = ?", c.Param("orderId")).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": models.ErrOrderNotFound.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch order"})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /orders/user/:userId
func GetUserOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		err := db.Preload("Items").
			Where("user_id = ?", c.Param("userId")).
			Order("placed_at DESC").
			Find(&orders).Error
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// GET /admin/orders
func GetAllOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := db.Preload("Items").Preload("ShippingAddress").Order("placed_at DESC")
		if status := c.Query("status"); status != "" {
			query = query.Where("status = ?", status)
		}
		if paymentStatus := c.Query("payment_status"); paymentStatus != "" {
			query = query.Where("payment_status = ?", paymentStatus)
		}

		var orders []models.Order
		if err := query.Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}
		c.JSON(http.StatusOK, orders)
	}
}

// PUT /admin/orders/:orderId/status
//
// Administrative fulfillment transitions, guarded by the order state machine.
func UpdateOrderStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdateOrderStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		next, err := models.ParseOrderStatus(req.Status)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid order status"})
			return
		}

		var order models.Order
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&order, "id = ?", c.Param("orderId")).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrOrderNotFound
				}
				return err
			}

			if !order.Status.CanTransitionTo(next) {
				return models.ErrInvalidTransition
			}

			now := time.Now()
			updates := map[string]interface{}{"status": next, "updated_at": now}
			switch next {
			case models.OrderStatusCancelled:
				updates["cancelled_at"] = now
			case models.OrderStatusFulfilled:
				updates["fulfilled_at"] = now
			case models.OrderStatusDelivered:
				updates["delivered_at"] = now
			}
			if req.Notes != "" {
				updates["notes"] = req.Notes
			}
			return tx.Model(&order).Updates(updates).Error
		})
		if err != nil {
			c.JSON(models.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// PUT /admin/orders/:orderId/payment-status
func UpdatePaymentStatus(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req UpdatePaymentStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		next, err := models.ParsePaymentStatus(req.PaymentStatus)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment status"})
			return
		}

		var order models.Order
		err = db.Transaction(func(tx *gorm.DB) error {
			if err := tx.First(&order, "id = ?", c.Param("orderId")).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrOrderNotFound
				}
				return err
			}

			if !order.PaymentStatus.CanTransitionTo(next) {
				return models.ErrInvalidTransition
			}
			return tx.Model(&order).Updates(map[string]interface{}{
				"payment_status": next,
				"updated_at":     time.Now(),
			}).Error
		})
		if err != nil {
			c.JSON(models.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, order)
	}
}

// GET /admin/carts
func GetAllCarts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var carts []models.Cart
		if err := db.Preload("Lines").Order("updated_at DESC").Find(&carts).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch carts"})
			return
		}
		c.JSON(http.StatusOK, carts)
	}
}

// GET /admin/metrics/cart-vs-orders
//
// Conversion snapshot for the admin dashboard: how many carts turned into
// orders, and where the orders sit.
func CartVsOrders(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cartCount, orderCount int64
		if err := db.Model(&models.Cart{}).Count(&cartCount).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count carts"})
			return
		}
		if err := db.Model(&models.Order{}).Count(&orderCount).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to count orders"})
			return
		}

		type statusCount struct {
			Status string `json:"status"`
			Count  int64  `json:"count"`
		}
		var byStatus []statusCount
		if err := db.Model(&models.Order{}).
			Select("status, COUNT(*) AS count").
			Group("status").
			Scan(&byStatus).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to aggregate orders"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"carts":            cartCount,
			"orders":           orderCount,
			"orders_by_status": byStatus,
		})
	}
}
