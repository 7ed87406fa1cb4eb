package domain

import (
	"context"
	"time"
)

type Service interface {
	CreateTransaction(ctx context.Context, req CreateTransactionRequest) (*CreateTransactionResponse, error)
	GetByOrderID(ctx context.Context, orderID string) (*PaymentResponse, error)
	RenderReceipt(ctx context.Context, orderID string) ([]byte, error)
}

type CreateTransactionRequest struct {
	Plan       string    `json:"plan" validate:"required,max=64"`
	EmployerID string    `json:"employer_id" validate:"omitempty,numeric"`
	UserID     string    `json:"user_id" validate:"omitempty,max=64"`
	Customer   *Customer `json:"customer" validate:"omitempty"`
}

type CreateTransactionResponse struct {
	Token       string `json:"token"`
	RedirectURL string `json:"redirect_url"`
	OrderID     string `json:"order_id"`
}

type PaymentResponse struct {
	OrderID       string     `json:"order_id"`
	Status        Status     `json:"status"`
	GrossAmount   int64      `json:"gross_amount"`
	Currency      string     `json:"currency"`
	PlanID        string     `json:"plan_id"`
	EmployerID    string     `json:"employer_id,omitempty"`
	Method        string     `json:"method,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty"`
	NeedsReview   bool       `json:"needs_review"`
	RedirectURL   string     `json:"redirect_url"`
	SettledAt     *time.Time `json:"settled_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}
