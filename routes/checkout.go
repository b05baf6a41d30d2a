package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/lizmart/storefront-api/config"
	checkoutControllers "github.com/lizmart/storefront-api/controllers/checkout"
	mpesaControllers "github.com/lizmart/storefront-api/controllers/mpesa"
	"gorm.io/gorm"
)

func SetupCheckoutRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, mpesa *mpesaControllers.Client) {
	r.POST("/checkout/cart/:cartId", checkoutControllers.CheckoutCart(db, mpesa, cfg.Store.FrontendURL))
}
