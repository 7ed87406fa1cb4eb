// Package domain contains persistence models for employer subscriptions.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// Subscription records one paid or free period on a plan. The latest row per
// employer is authoritative; older rows stay as history.
type Subscription struct {
	ID                 snowflake.ID       `gorm:"primaryKey" json:"id"`
	EmployerID         snowflake.ID       `gorm:"not null;index" json:"employer_id"`
	PlanID             snowflake.ID       `gorm:"not null;index" json:"plan_id"`
	Status             SubscriptionStatus `gorm:"type:text;not null" json:"status"`
	CurrentPeriodStart time.Time          `gorm:"not null" json:"current_period_start"`
	CurrentPeriodEnd   time.Time          `gorm:"not null" json:"current_period_end"`
	CanceledAt         *time.Time         `json:"canceled_at,omitempty"`
	// OrderID links the subscription to the payment that funded it, empty for free plans.
	OrderID   string            `gorm:"type:text" json:"order_id,omitempty"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }
