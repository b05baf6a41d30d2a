package routes

import (
	"github.com/gin-gonic/gin"
	mpesaControllers "github.com/lizmart/storefront-api/controllers/mpesa"
	orderControllers "github.com/lizmart/storefront-api/controllers/order"
	"gorm.io/gorm"
)

func SetupOrderRoutes(r *gin.Engine, db *gorm.DB, mpesa *mpesaControllers.Client) {
	orders := r.Group("/orders")
	{
		orders.GET("/:orderId", orderControllers.GetOrder(db))
		orders.GET("/user/:userId", orderControllers.GetUserOrders(db))

		// Re-issue a push for a PENDING order
		orders.POST("/:orderId/pay", mpesaControllers.RetryPayment(db, mpesa))
	}
}
