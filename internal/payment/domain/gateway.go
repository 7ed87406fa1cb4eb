package domain

import (
	"context"

	"github.com/smallbiznis/hirehub/pkg/money"
)

//go:generate mockgen -source=gateway.go -destination=../mocks/mock_gateway.go -package=mocks

// Gateway is the payment provider used for checkout and notification authentication.
type Gateway interface {
	Name() string
	CreateTransaction(ctx context.Context, req ChargeRequest) (*ChargeResponse, error)
	// VerifySignature checks the notification signature against the provider secret.
	VerifySignature(n Notification) bool
}

type ChargeRequest struct {
	OrderID     string
	GrossAmount money.Amount
	Currency    string
	Item        ItemDetail
	Customer    Customer
	Callbacks   Callbacks
}

type ItemDetail struct {
	ID       string
	Name     string
	Price    money.Amount
	Quantity int
}

type Customer struct {
	FirstName string `json:"first_name" validate:"omitempty,max=255"`
	LastName  string `json:"last_name" validate:"omitempty,max=255"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
}

type Callbacks struct {
	Finish  string
	Pending string
	Error   string
}

type ChargeResponse struct {
	Token       string
	RedirectURL string
}

// Notification is the gateway's asynchronous status callback. All fields
// arrive as strings on the wire.
type Notification struct {
	OrderID           string `json:"order_id"`
	StatusCode        string `json:"status_code"`
	GrossAmount       string `json:"gross_amount"`
	SignatureKey      string `json:"signature_key"`
	TransactionStatus string `json:"transaction_status"`
	FraudStatus       string `json:"fraud_status,omitempty"`
	PaymentType       string `json:"payment_type,omitempty"`
	TransactionID     string `json:"transaction_id,omitempty"`
	TransactionTime   string `json:"transaction_time,omitempty"`
	StatusMessage     string `json:"status_message,omitempty"`
	Currency          string `json:"currency,omitempty"`
}

// Complete reports whether the signed fields are present. An empty
// transaction_status is left to the status mapping, which flags it for review.
func (n Notification) Complete() bool {
	return n.OrderID != "" &&
		n.StatusCode != "" &&
		n.GrossAmount != "" &&
		n.SignatureKey != ""
}
