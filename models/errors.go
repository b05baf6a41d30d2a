package models

import (
	"errors"
	"net/http"
)

// Core error taxonomy. Handlers translate these to HTTP statuses at the edge;
// everything below the handler layer deals in these sentinels only.
var (
	ErrInvalidQuantity   = errors.New("quantity must be a positive integer")
	ErrInvalidAmount     = errors.New("amount must be a positive finite number")
	ErrInvalidPhone      = errors.New("phone number must be numeric")
	ErrCartNotFound      = errors.New("cart not found")
	ErrLineNotFound      = errors.New("cart line not found")
	ErrVariantNotFound   = errors.New("variant not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrOrderNumberTaken  = errors.New("order number already taken")
	ErrGateway           = errors.New("payment gateway error")
	ErrMalformedCallback = errors.New("malformed payment callback")
	ErrForbiddenSource   = errors.New("request source not allowed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrPaymentSettled    = errors.New("payment already captured")
)

// HTTPStatus maps a taxonomy error to its response status. Unknown errors are
// internal failures.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrInvalidQuantity),
		errors.Is(err, ErrInvalidAmount),
		errors.Is(err, ErrInvalidPhone),
		errors.Is(err, ErrEmptyCart),
		errors.Is(err, ErrMalformedCallback):
		return http.StatusBadRequest
	case errors.Is(err, ErrCartNotFound),
		errors.Is(err, ErrLineNotFound),
		errors.Is(err, ErrVariantNotFound),
		errors.Is(err, ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrOrderNumberTaken),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrPaymentSettled):
		return http.StatusConflict
	case errors.Is(err, ErrForbiddenSource):
		return http.StatusForbidden
	case errors.Is(err, ErrGateway):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
