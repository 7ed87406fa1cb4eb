// Package domain contains the plan catalog model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hirehub/pkg/money"
)

// Plan is a purchasable package. Pricing fields are frozen once a payment references the plan.
type Plan struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Slug      string       `gorm:"type:text;not null;uniqueIndex:ux_plans_slug" json:"slug"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Amount    money.Amount `gorm:"type:bigint;not null" json:"amount"`
	Currency  string       `gorm:"type:text;not null" json:"currency"`
	Interval  Interval     `gorm:"column:billing_interval;type:text;not null" json:"interval"`
	Active    bool         `gorm:"not null;default:true" json:"active"`
	TrialDays int          `gorm:"not null;default:0" json:"trial_days"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Plan) TableName() string { return "plans" }

func (p Plan) IsFree() bool { return p.Amount == 0 }

func (p Plan) HasTrial() bool { return p.TrialDays > 0 }

// SamePricing reports whether two plans bill identically.
func (p Plan) SamePricing(other Plan) bool {
	return p.Amount == other.Amount &&
		p.Currency == other.Currency &&
		p.Interval == other.Interval &&
		p.TrialDays == other.TrialDays
}
