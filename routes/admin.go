package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/lizmart/storefront-api/config"
	orderControllers "github.com/lizmart/storefront-api/controllers/order"
	productControllers "github.com/lizmart/storefront-api/controllers/product"
	"github.com/lizmart/storefront-api/middleware"
	"gorm.io/gorm"
)

func SetupAdminRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config) {
	admin := r.Group("/admin", middleware.ValidateAPIKey(cfg.Admin.APIKey))
	{
		products := admin.Group("/products")
		{
			products.POST("", productControllers.CreateProduct(db))
			products.GET("", productControllers.GetProducts(db))
			products.GET("/:productId", productControllers.GetProduct(db))
			products.PUT("/:productId", productControllers.UpdateProduct(db))
			products.DELETE("/:productId", productControllers.DeleteProduct(db))
			products.POST("/:productId/variants", productControllers.CreateVariant(db))
			products.PUT("/:productId/variants/:variantId", productControllers.UpdateVariant(db))
			products.DELETE("/:productId/variants/:variantId", productControllers.DeleteVariant(db))
		}

		orders := admin.Group("/orders")
		{
			orders.GET("", orderControllers.GetAllOrders(db))
			orders.GET("/export", orderControllers.ExportOrdersToExcel(db))
			orders.GET("/ws", orderControllers.OrderWebSocketHandler)
			orders.GET("/:orderId", orderControllers.GetOrder(db))
			orders.PUT("/:orderId/status", orderControllers.UpdateOrderStatus(db))
			orders.PUT("/:orderId/payment-status", orderControllers.UpdatePaymentStatus(db))
		}

		admin.GET("/carts", orderControllers.GetAllCarts(db))
		admin.GET("/metrics/cart-vs-orders", orderControllers.CartVsOrders(db))
	}
}
