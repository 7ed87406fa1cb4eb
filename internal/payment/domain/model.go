package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hirehub/pkg/money"
	"gorm.io/datatypes"
)

// Payment is one gateway checkout. It is created pending, only changed by
// webhook notifications and never deleted.
type Payment struct {
	ID            snowflake.ID   `json:"id" gorm:"primaryKey"`
	OrderID       string         `json:"order_id" gorm:"type:varchar(50);not null;uniqueIndex:ux_payments_order_id"`
	EmployerID    *snowflake.ID  `json:"employer_id,omitempty" gorm:"index"`
	UserID        *string        `json:"user_id,omitempty" gorm:"type:text"`
	PlanID        snowflake.ID   `json:"plan_id" gorm:"not null;index"`
	Provider      string         `json:"provider" gorm:"type:text;not null"`
	Currency      string         `json:"currency" gorm:"type:text;not null"`
	GrossAmount   money.Amount   `json:"gross_amount" gorm:"type:bigint;not null"`
	Status        Status         `json:"status" gorm:"type:text;not null;index"`
	Method        *string        `json:"method,omitempty" gorm:"type:text"`
	TransactionID *string        `json:"transaction_id,omitempty" gorm:"type:text"`
	FraudStatus   *string        `json:"fraud_status,omitempty" gorm:"type:text"`
	NeedsReview   bool           `json:"needs_review" gorm:"not null;default:false"`
	Token         string         `json:"-" gorm:"type:text;not null"`
	RedirectURL   string         `json:"redirect_url" gorm:"type:text;not null"`
	Metadata      datatypes.JSON `json:"metadata" gorm:"type:jsonb"`
	SettledAt     *time.Time     `json:"settled_at,omitempty"`
	CreatedAt     time.Time      `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt     time.Time      `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

func (Payment) TableName() string { return "payments" }

// EventRecord is the append-only log of authenticated gateway notifications.
// Redeliveries of the same body collapse on DedupKey.
type EventRecord struct {
	ID                snowflake.ID   `json:"id" gorm:"primaryKey"`
	OrderID           string         `json:"order_id" gorm:"type:varchar(50);not null;index"`
	Provider          string         `json:"provider" gorm:"type:text;not null"`
	DedupKey          string         `json:"dedup_key" gorm:"type:text;not null;uniqueIndex:ux_payment_events_dedup"`
	TransactionStatus string         `json:"transaction_status" gorm:"type:text;not null"`
	MappedStatus      Status         `json:"mapped_status" gorm:"type:text;not null"`
	Outcome           string         `json:"outcome" gorm:"type:text;not null"`
	Payload           datatypes.JSON `json:"payload" gorm:"type:jsonb;not null"`
	ReceivedAt        time.Time      `json:"received_at" gorm:"not null"`
}

func (EventRecord) TableName() string { return "payment_events" }

const (
	EventOutcomeApplied = "applied"
	EventOutcomeSkipped = "skipped"
)
