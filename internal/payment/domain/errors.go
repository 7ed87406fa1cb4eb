package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidRequest    = errors.New("invalid_request")
	ErrPaymentNotFound   = errors.New("payment_not_found")
	ErrInvalidOperation  = errors.New("invalid_operation")
	ErrInvalidAmount     = errors.New("invalid_amount")
	ErrGatewayTimeout    = errors.New("gateway_timeout")
	ErrPaymentNotSettled = errors.New("payment_not_settled")
)

// GatewayError carries the provider's own message for a failed transaction creation.
type GatewayError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *GatewayError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: gateway returned %d: %s", e.Provider, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Provider, e.Message)
}
