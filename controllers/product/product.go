package productControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lizmart/storefront-api/models"
	"gorm.io/gorm"
)

type ProductInput struct {
	Title         string `json:"title" binding:"required"`
	Handle        string `json:"handle" binding:"required"`
	Description   string `json:"description"`
	FeaturedImage string `json:"featured_image"`
}

type VariantInput struct {
	Title           string  `json:"title" binding:"required"`
	SKU             string  `json:"sku"`
	PriceAmount     float64 `json:"price_amount" binding:"required,gt=0"`
	PriceCurrency   string  `json:"price_currency"`
	SelectedOptions string  `json:"selected_options"`
	Stock           int     `json:"stock"`
}

// POST /admin/products
func CreateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		product := models.Product{
			Title:         input.Title,
			Handle:        input.Handle,
			Description:   input.Description,
			FeaturedImage: input.FeaturedImage,
		}
		if err := db.Create(&product).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				c.JSON(http.StatusConflict, gin.H{"error": "Handle already in use"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create product"})
			return
		}
		c.JSON(http.StatusCreated, product)
	}
}

// GET /admin/products
func GetProducts(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var products []models.Product
		if err := db.Preload("Variants").Find(&products).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch products"})
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// GET /admin/products/:productId
func GetProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var product models.Product
		if err := db.Preload("Variants").First(&product, "id = ?", c.Param("productId")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// PUT /admin/products/:productId
func UpdateProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input ProductInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var product models.Product
		if err := db.First(&product, "id = ?", c.Param("productId")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
			return
		}

		product.Title = input.Title
		product.Handle = input.Handle
		product.Description = input.Description
		product.FeaturedImage = input.FeaturedImage
		if err := db.Save(&product).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product"})
			return
		}
		c.JSON(http.StatusOK, product)
	}
}

// DELETE /admin/products/:productId
func DeleteProduct(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := db.Delete(&models.Product{}, "id = ?", c.Param("productId"))
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete product"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
	}
}

// POST /admin/products/:productId/variants
func CreateVariant(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input VariantInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var product models.Product
		if err := db.First(&product, "id = ?", c.Param("productId")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch product"})
			return
		}

		currency := input.PriceCurrency
		if currency == "" {
			currency = "KES"
		}
		variant := models.ProductVariant{
			ProductID:       product.ID,
			Title:           input.Title,
			SKU:             input.SKU,
			PriceAmount:     input.PriceAmount,
			PriceCurrency:   currency,
			SelectedOptions: input.SelectedOptions,
			Stock:           input.Stock,
		}
		if err := db.Create(&variant).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create variant"})
			return
		}
		c.JSON(http.StatusCreated, variant)
	}
}

// PUT /admin/products/:productId/variants/:variantId
func UpdateVariant(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input VariantInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var variant models.ProductVariant
		err := db.Where("id = ? AND product_id = ?", c.Param("variantId"), c.Param("productId")).
			First(&variant).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": models.ErrVariantNotFound.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch variant"})
			return
		}

		variant.Title = input.Title
		variant.SKU = input.SKU
		variant.PriceAmount = input.PriceAmount
		if input.PriceCurrency != "" {
			variant.PriceCurrency = input.PriceCurrency
		}
		variant.SelectedOptions = input.SelectedOptions
		variant.Stock = input.Stock
		if err := db.Save(&variant).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update variant"})
			return
		}
		c.JSON(http.StatusOK, variant)
	}
}

// DELETE /admin/products/:productId/variants/:variantId
func DeleteVariant(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := db.Where("id = ? AND product_id = ?", c.Param("variantId"), c.Param("productId")).
			Delete(&models.ProductVariant{})
		if result.Error != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete variant"})
			return
		}
		if result.RowsAffected == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": models.ErrVariantNotFound.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Variant deleted"})
	}
}
