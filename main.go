package main

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lizmart/storefront-api/config"
	mpesaControllers "github.com/lizmart/storefront-api/controllers/mpesa"
	"github.com/lizmart/storefront-api/models"
	"github.com/lizmart/storefront-api/routes"
	"github.com/lizmart/storefront-api/util"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		panic(err)
	}
	defer util.SyncLogger()
	logger := util.GetLogger()

	db := initDatabase(cfg, logger)

	if err := db.AutoMigrate(
		&models.Product{},
		&models.ProductVariant{},
		&models.Cart{},
		&models.CartLine{},
		&models.ShippingAddress{},
		&models.Order{},
		&models.OrderItem{},
		&models.Payment{},
		&models.StkCallback{},
		&models.CallbackMetadata{},
	); err != nil {
		logger.Fatal("automigrate failed", zap.Error(err))
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.Store.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-API-KEY"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	mpesa := mpesaControllers.NewClient(cfg.Mpesa)
	routes.SetupRoutes(r, db, cfg, mpesa)

	logger.Info("server starting", zap.String("port", cfg.Server.Port))
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

// initDatabase sets up the GORM DB connection.
func initDatabase(cfg *config.Config, logger *zap.Logger) *gorm.DB {
	db, err := gorm.Open(postgres.Open(cfg.Database.DSN()), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		logger.Fatal("db connection failed", zap.Error(err))
	}
	return db
}
