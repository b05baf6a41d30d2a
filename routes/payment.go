package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/lizmart/storefront-api/config"
	mpesaControllers "github.com/lizmart/storefront-api/controllers/mpesa"
	"github.com/lizmart/storefront-api/middleware"
	"github.com/lizmart/storefront-api/util"
	"gorm.io/gorm"
)

func SetupPaymentRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config) {
	payments := r.Group("/payments")
	{
		// Webhook endpoint: middleware gates on the provider's source IPs
		payments.POST("/webhook",
			middleware.WebhookIPAllowlist(cfg.Webhook.AllowedIPs, util.GetLogger()),
			mpesaControllers.HandleWebhook(db),
		)
	}
}
