package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCartTotals(t *testing.T) {
	lines := []CartLine{
		{Quantity: 2, UnitPriceAmount: 500, LineTotalAmount: 1000},
		{Quantity: 1, UnitPriceAmount: 250, LineTotalAmount: 250},
	}

	subtotal, quantity := CartTotals(lines)
	assert.Equal(t, 1250.0, subtotal)
	assert.Equal(t, 3, quantity)
}

func TestCartTotalsEmpty(t *testing.T) {
	subtotal, quantity := CartTotals(nil)
	assert.Equal(t, 0.0, subtotal)
	assert.Equal(t, 0, quantity)
}

// Totals must stay consistent with the line set after every mutation:
// subtotal == sum of line totals and quantity == sum of line quantities.
func TestCartTotalsAfterMutationSequence(t *testing.T) {
	reprice := func(l *CartLine) {
		l.LineTotalAmount = l.UnitPriceAmount * float64(l.Quantity)
	}

	// Add 2 of a 500-unit variant: lineTotal 1000.
	line := CartLine{VariantID: "v1", Quantity: 2, UnitPriceAmount: 500}
	reprice(&line)
	lines := []CartLine{line}

	subtotal, quantity := CartTotals(lines)
	assert.Equal(t, 1000.0, subtotal)
	assert.Equal(t, 2, quantity)

	// Add 3 more of the same variant: the existing line increments to 5,
	// lineTotal 2500, cart subtotal 2500.
	lines[0].Quantity += 3
	reprice(&lines[0])

	subtotal, quantity = CartTotals(lines)
	assert.Equal(t, 2500.0, lines[0].LineTotalAmount)
	assert.Equal(t, 2500.0, subtotal)
	assert.Equal(t, 5, quantity)

	// Add a second variant, then remove it again.
	other := CartLine{VariantID: "v2", Quantity: 4, UnitPriceAmount: 75}
	reprice(&other)
	lines = append(lines, other)

	subtotal, quantity = CartTotals(lines)
	assert.Equal(t, 2800.0, subtotal)
	assert.Equal(t, 9, quantity)

	lines = lines[:1]
	subtotal, quantity = CartTotals(lines)
	assert.Equal(t, 2500.0, subtotal)
	assert.Equal(t, 5, quantity)
}
