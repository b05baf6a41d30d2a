package routes

import (
	"github.com/gin-gonic/gin"
	cartControllers "github.com/lizmart/storefront-api/controllers/cart"
	"gorm.io/gorm"
)

func SetupCartRoutes(r *gin.Engine, db *gorm.DB) {
	cart := r.Group("/cart")
	{
		cart.POST("", cartControllers.CreateCart(db))
		cart.GET("/:cartId", cartControllers.GetCart(db))
		cart.POST("/:cartId/items", cartControllers.AddCartItem(db))
		cart.PUT("/:cartId/items/:lineId", cartControllers.UpdateCartItem(db))
		cart.DELETE("/:cartId/items", cartControllers.RemoveCartItems(db))
	}
}
