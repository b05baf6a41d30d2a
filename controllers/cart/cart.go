package cartControllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lizmart/storefront-api/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreateCartInput struct {
	UserID   *string `json:"user_id"`
	Currency string  `json:"currency"`
}

type AddItemInput struct {
	VariantID string `json:"variant_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required"`
}

type UpdateItemInput struct {
	Quantity int `json:"quantity" binding:"required"`
}

type RemoveItemsInput struct {
	LineIDs []string `json:"line_ids" binding:"required,min=1"`
}

// POST /cart
func CreateCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreateCartInput
		// Body is optional; an anonymous cart needs nothing.
		_ = c.ShouldBindJSON(&input)

		cart := models.Cart{UserID: input.UserID, Currency: "KES"}
		if input.Currency != "" {
			cart.Currency = input.Currency
		}
		if err := db.Create(&cart).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create cart"})
			return
		}
		c.JSON(http.StatusCreated, cart)
	}
}

// GET /cart/:cartId
func GetCart(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var cart models.Cart
		if err := db.Preload("Lines").First(&cart, "id = ?", c.Param("cartId")).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				c.JSON(http.StatusNotFound, gin.H{"error": models.ErrCartNotFound.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch cart"})
			return
		}
		c.JSON(http.StatusOK, cart)
	}
}

// POST /cart/:cartId/items
//
// Adds a variant to the cart, or increments the existing line for the same
// (cart, variant) pair. The touched line's merchandise snapshot is refreshed
// to the variant's current state; untouched lines keep their older snapshot.
func AddCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID := c.Param("cartId")

		var input AddItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		if input.Quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrInvalidQuantity.Error()})
			return
		}

		var result models.Cart
		err := db.Transaction(func(tx *gorm.DB) error {
			// Lock the cart row so concurrent mutations on the same cart
			// serialize before the totals recompute.
			var cart models.Cart
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&cart, "id = ?", cartID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrCartNotFound
				}
				return err
			}

			var variant models.ProductVariant
			if err := tx.Preload("Product").First(&variant, "id = ?", input.VariantID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrVariantNotFound
				}
				return err
			}

			var line models.CartLine
			err := tx.Where("cart_id = ? AND variant_id = ?", cart.ID, variant.ID).First(&line).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				line = models.CartLine{
					CartID:    cart.ID,
					VariantID: variant.ID,
					Quantity:  input.Quantity,
				}
				applySnapshot(&line, &variant)
				if err := tx.Create(&line).Error; err != nil {
					return err
				}
			case err != nil:
				return err
			default:
				line.Quantity += input.Quantity
				applySnapshot(&line, &variant)
				if err := tx.Save(&line).Error; err != nil {
					return err
				}
			}

			return recalcCart(tx, &cart, &result)
		})
		if err != nil {
			c.JSON(models.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, result)
	}
}

// PUT /cart/:cartId/items/:lineId
func UpdateCartItem(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID := c.Param("cartId")
		lineID := c.Param("lineId")

		var input UpdateItemInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}
		if input.Quantity < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": models.ErrInvalidQuantity.Error()})
			return
		}

		var result models.Cart
		err := db.Transaction(func(tx *gorm.DB) error {
			var cart models.Cart
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&cart, "id = ?", cartID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrCartNotFound
				}
				return err
			}

			var line models.CartLine
			if err := tx.Where("id = ? AND cart_id = ?", lineID, cart.ID).First(&line).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrLineNotFound
				}
				return err
			}

			// Touched line: refresh the snapshot to the variant's current state.
			var variant models.ProductVariant
			if err := tx.Preload("Product").First(&variant, "id = ?", line.VariantID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrVariantNotFound
				}
				return err
			}

			line.Quantity = input.Quantity
			applySnapshot(&line, &variant)
			if err := tx.Save(&line).Error; err != nil {
				return err
			}

			return recalcCart(tx, &cart, &result)
		})
		if err != nil {
			c.JSON(models.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// DELETE /cart/:cartId/items
func RemoveCartItems(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		cartID := c.Param("cartId")

		var input RemoveItemsInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
			return
		}

		var result models.Cart
		err := db.Transaction(func(tx *gorm.DB) error {
			var cart models.Cart
			if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
				First(&cart, "id = ?", cartID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return models.ErrCartNotFound
				}
				return err
			}

			res := tx.Where("cart_id = ? AND id IN ?", cart.ID, input.LineIDs).
				Delete(&models.CartLine{})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return models.ErrLineNotFound
			}

			return recalcCart(tx, &cart, &result)
		})
		if err != nil {
			c.JSON(models.HTTPStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}

// applySnapshot reprices the line from the variant and captures a fresh
// merchandise snapshot. Always called with the variant's current row, so a
// stale product name never lingers on an actively-updated line.
func applySnapshot(line *models.CartLine, variant *models.ProductVariant) {
	line.UnitPriceAmount = variant.PriceAmount
	line.LineTotalAmount = variant.PriceAmount * float64(line.Quantity)
	line.Currency = variant.PriceCurrency
	line.ProductID = variant.ProductID
	line.ProductTitle = variant.Product.Title
	line.VariantTitle = variant.Title
	line.SKU = variant.SKU
	line.SelectedOptions = variant.SelectedOptions
}

// recalcCart re-derives the cart's subtotal, total and quantity from the full
// line set inside the caller's transaction, never from a stale in-memory
// total, then loads the updated cart into out.
func recalcCart(tx *gorm.DB, cart *models.Cart, out *models.Cart) error {
	var lines []models.CartLine
	if err := tx.Where("cart_id = ?", cart.ID).Find(&lines).Error; err != nil {
		return err
	}

	subtotal, quantity := models.CartTotals(lines)
	if err := tx.Model(cart).Updates(map[string]interface{}{
		"subtotal_amount": subtotal,
		"total_amount":    subtotal,
		"total_quantity":  quantity,
	}).Error; err != nil {
		return err
	}

	return tx.Preload("Lines").First(out, "id = ?", cart.ID).Error
}
