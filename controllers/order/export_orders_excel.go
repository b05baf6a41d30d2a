package orderControllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/lizmart/storefront-api/models"
	"github.com/tealeg/xlsx"
	"gorm.io/gorm"
)

// GET /admin/orders/export
func ExportOrdersToExcel(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var orders []models.Order
		if err := db.Preload("Items").Preload("ShippingAddress").
			Order("placed_at DESC").Find(&orders).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch orders"})
			return
		}

		file := xlsx.NewFile()
		sheet, err := file.AddSheet("Orders")
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create Excel sheet"})
			return
		}

		headers := []string{
			"OrderNumber", "Status", "PaymentStatus", "Currency",
			"Subtotal", "Shipping", "Tax", "Total", "Quantity",
			"Customer", "Phone", "County", "Town",
			"PlacedAt", "PaidAt",
		}
		headerRow := sheet.AddRow()
		for _, h := range headers {
			headerRow.AddCell().SetValue(h)
		}

		for _, o := range orders {
			row := sheet.AddRow()
			row.AddCell().SetValue(o.OrderNumber)
			row.AddCell().SetValue(string(o.Status))
			row.AddCell().SetValue(string(o.PaymentStatus))
			row.AddCell().SetValue(o.Currency)
			row.AddCell().SetValue(o.SubtotalAmount)
			row.AddCell().SetValue(o.ShippingAmount)
			row.AddCell().SetValue(o.TaxAmount)
			row.AddCell().SetValue(o.TotalAmount)
			row.AddCell().SetValue(o.TotalQuantity)
			row.AddCell().SetValue(o.ShippingAddress.FullName)
			row.AddCell().SetValue(o.ShippingAddress.Phone)
			row.AddCell().SetValue(o.ShippingAddress.County)
			row.AddCell().SetValue(o.ShippingAddress.Town)
			row.AddCell().SetValue(o.PlacedAt.Format("2006-01-02 15:04:05"))
			if o.PaidAt != nil {
				row.AddCell().SetValue(o.PaidAt.Format("2006-01-02 15:04:05"))
			} else {
				row.AddCell().SetValue("")
			}
		}

		c.Header("Content-Disposition", `attachment; filename="orders.xlsx"`)
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := file.Write(c.Writer); err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to write Excel file"})
		}
	}
}
