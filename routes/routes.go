package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/lizmart/storefront-api/config"
	mpesaControllers "github.com/lizmart/storefront-api/controllers/mpesa"
	"gorm.io/gorm"
)

// SetupRoutes is the single entry point that wires up the storefront,
// payment and admin route groups.
func SetupRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config, mpesa *mpesaControllers.Client) {
	// Public storefront routes
	SetupCartRoutes(r, db)
	SetupCheckoutRoutes(r, db, cfg, mpesa)
	SetupOrderRoutes(r, db, mpesa)

	// Gateway webhook
	SetupPaymentRoutes(r, db, cfg)

	// Admin routes (API-key protected)
	SetupAdminRoutes(r, db, cfg)
}
