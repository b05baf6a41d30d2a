package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatusTransitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusConfirmed, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusFulfilled, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusConfirmed, OrderStatusFulfilled, true},
		{OrderStatusConfirmed, OrderStatusCancelled, true},
		{OrderStatusConfirmed, OrderStatusPending, false},
		{OrderStatusFulfilled, OrderStatusDelivered, true},
		{OrderStatusFulfilled, OrderStatusCancelled, true},
		{OrderStatusDelivered, OrderStatusCancelled, true},
		// A cancelled order is terminal; a late capture must not confirm it.
		{OrderStatusCancelled, OrderStatusConfirmed, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusCancelled, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestPaymentStatusTransitions(t *testing.T) {
	cases := []struct {
		from    PaymentStatus
		to      PaymentStatus
		allowed bool
	}{
		{PaymentStatusPending, PaymentStatusCaptured, true},
		{PaymentStatusPending, PaymentStatusFailed, true},
		{PaymentStatusFailed, PaymentStatusPending, true},
		{PaymentStatusFailed, PaymentStatusCaptured, true},
		// CAPTURED is terminal.
		{PaymentStatusCaptured, PaymentStatusFailed, false},
		{PaymentStatusCaptured, PaymentStatusPending, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to),
			"%s -> %s", tc.from, tc.to)
	}
}

func TestParseOrderStatus(t *testing.T) {
	status, err := ParseOrderStatus("CONFIRMED")
	assert.NoError(t, err)
	assert.Equal(t, OrderStatusConfirmed, status)

	_, err = ParseOrderStatus("confirmed")
	assert.Error(t, err)

	_, err = ParseOrderStatus("SHIPPED")
	assert.Error(t, err)
}

func TestParsePaymentStatus(t *testing.T) {
	status, err := ParsePaymentStatus("CAPTURED")
	assert.NoError(t, err)
	assert.Equal(t, PaymentStatusCaptured, status)

	_, err = ParsePaymentStatus("REFUNDED")
	assert.Error(t, err)
}
