package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/hirehub/internal/billing/domain"
	"gorm.io/gorm"
)

// BillingState is the subset of employer columns owned by the billing engine.
type BillingState struct {
	BillingStatus  billingdomain.Status
	CurrentPlanID  *snowflake.ID
	TrialStartedAt *time.Time
	TrialEndsAt    *time.Time
	PremiumUntil   *time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, employer Employer) error
	CreateAdmin(ctx context.Context, admin Admin) error
	GetByID(ctx context.Context, id snowflake.ID) (*Employer, error)
	// GetForUpdate loads the employer row locked for the rest of the transaction.
	GetForUpdate(ctx context.Context, id snowflake.ID) (*Employer, error)
	ListSlugsWithPrefix(ctx context.Context, prefix string) ([]string, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	GetOwner(ctx context.Context, employerID snowflake.ID) (*Admin, error)
	UpdateStep(ctx context.Context, id snowflake.ID, step Step, at time.Time) error
	UpdateBilling(ctx context.Context, id snowflake.ID, state BillingState, at time.Time) error
	GetProfile(ctx context.Context, employerID snowflake.ID) (*Profile, error)
	UpsertProfile(ctx context.Context, profile Profile) error
	// ListBillingExpired returns employers whose status is `status` and whose
	// relevant end date (trial_ends_at for trial, premium_until for active) is before now.
	ListBillingExpired(ctx context.Context, status billingdomain.Status, now time.Time, limit int) ([]Employer, error)
	// TransitionBilling moves the employer from one status to another only if it is still in `from`.
	TransitionBilling(ctx context.Context, id snowflake.ID, from, to billingdomain.Status, at time.Time) (bool, error)
}

var (
	ErrEmployerNotFound = errors.New("employer_not_found")
	ErrEmailTaken       = errors.New("email_taken")
)
