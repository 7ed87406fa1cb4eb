package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, sub *Subscription) error
	// Latest returns the most recently created subscription of the employer.
	Latest(ctx context.Context, employerID snowflake.ID) (*Subscription, error)
	FindActive(ctx context.Context, employerID snowflake.ID) ([]Subscription, error)
	FindByOrderID(ctx context.Context, orderID string) (*Subscription, error)
	CancelActive(ctx context.Context, employerID snowflake.ID, at time.Time) (int64, error)
	Cancel(ctx context.Context, id snowflake.ID, at time.Time) error
	ListByEmployer(ctx context.Context, employerID snowflake.ID) ([]Subscription, error)
}
