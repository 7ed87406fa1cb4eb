package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/hirehub/internal/plan/domain"
	"gorm.io/gorm"
)

// Service decides and applies employer billing state. Every method runs inside
// the caller's transaction so billing writes commit together with the step or
// payment update that caused them.
type Service interface {
	Decide(ctx context.Context, tx *gorm.DB, employerID snowflake.ID, plan plandomain.Plan) (*Decision, error)
	ApplySettlement(ctx context.Context, tx *gorm.DB, s Settlement) error
	ApplyReversal(ctx context.Context, tx *gorm.DB, s Settlement) error
	SweepExpired(ctx context.Context) (*SweepResult, error)
}

type Decision struct {
	Mode           Mode
	PlanID         snowflake.ID
	Status         Status
	TrialEndsAt    *time.Time
	PremiumUntil   *time.Time
	SubscriptionID *snowflake.ID
	// Unchanged is set when the employer was already in the decided state.
	Unchanged bool
}

// Settlement identifies the payment whose outcome is applied to the employer.
type Settlement struct {
	EmployerID snowflake.ID
	PlanID     snowflake.ID
	OrderID    string
	At         time.Time
}

type SweepResult struct {
	TrialsExpired int
	ActiveLapsed  int
}
