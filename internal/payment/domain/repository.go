package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, payment *Payment) error
	GetByOrderID(ctx context.Context, orderID string) (*Payment, error)
	GetByOrderIDForUpdate(ctx context.Context, orderID string) (*Payment, error)
	// ApplyNotification blind-overwrites the notification-owned columns by order id.
	ApplyNotification(ctx context.Context, payment *Payment) (bool, error)
	InsertEvent(ctx context.Context, event *EventRecord) (bool, error)
	ListEvents(ctx context.Context, orderID string) ([]EventRecord, error)
}
