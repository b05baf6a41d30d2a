package checkoutControllers

import (
	"encoding/json"
	"regexp"
	"testing"
	"time"

	"github.com/lizmart/storefront-api/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildOrderItems(t *testing.T) {
	lines := []models.CartLine{
		{
			VariantID:       "v1",
			ProductID:       "p1",
			ProductTitle:    "Moringa Powder",
			VariantTitle:    "250g",
			SKU:             "MOR-250",
			SelectedOptions: `{"Size":"250g"}`,
			Quantity:        5,
			UnitPriceAmount: 500,
			LineTotalAmount: 2500,
			Currency:        "KES",
		},
		{
			VariantID:       "v2",
			ProductID:       "p2",
			ProductTitle:    "Baobab Oil",
			VariantTitle:    "100ml",
			Quantity:        1,
			UnitPriceAmount: 750,
			LineTotalAmount: 750,
			Currency:        "KES",
		},
	}

	items, subtotal, quantity := buildOrderItems(lines)

	require.Len(t, items, 2)
	assert.Equal(t, 3250.0, subtotal)
	assert.Equal(t, 6, quantity)

	first := items[0]
	assert.Equal(t, "p1", first.ProductID)
	assert.Equal(t, "v1", first.VariantID)
	assert.Equal(t, "Moringa Powder", first.ProductTitle)
	assert.Equal(t, "250g", first.VariantTitle)
	assert.Equal(t, "MOR-250", first.SKU)
	assert.Equal(t, 5, first.Quantity)
	assert.Equal(t, 500.0, first.UnitPriceAmount)
	assert.Equal(t, 2500.0, first.LineTotalAmount)
	assert.Equal(t, "KES", first.Currency)

	var snapshot map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(first.MerchandiseSnapshot), &snapshot))
	assert.Equal(t, "Moringa Powder", snapshot["productTitle"])
	assert.Equal(t, "MOR-250", snapshot["sku"])
}

func TestBuildOrderItemsEmpty(t *testing.T) {
	items, subtotal, quantity := buildOrderItems(nil)
	assert.Empty(t, items)
	assert.Equal(t, 0.0, subtotal)
	assert.Equal(t, 0, quantity)
}

func TestGenerateOrderNumber(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	pattern := regexp.MustCompile(`^LM-20260830-[0-9A-F]{8}$`)

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		n := generateOrderNumber(now)
		assert.Regexp(t, pattern, n)
		assert.False(t, seen[n], "duplicate order number %s", n)
		seen[n] = true
	}
}
