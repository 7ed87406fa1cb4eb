// Package domain contains the employer tenant model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/hirehub/internal/billing/domain"
)

// Employer is the tenant created by the onboarding wizard.
type Employer struct {
	ID             snowflake.ID         `gorm:"primaryKey" json:"id"`
	Slug           string               `gorm:"type:text;not null;uniqueIndex:ux_employers_slug" json:"slug"`
	DisplayName    string               `gorm:"type:text;not null" json:"display_name"`
	LegalName      string               `gorm:"type:text;not null" json:"legal_name"`
	Website        string               `gorm:"type:text" json:"website,omitempty"`
	OnboardingStep Step                 `gorm:"type:text;not null" json:"onboarding_step"`
	BillingStatus  billingdomain.Status `gorm:"type:text;not null;index" json:"billing_status"`
	CurrentPlanID  *snowflake.ID        `gorm:"column:current_plan_id" json:"current_plan_id,omitempty"`
	TrialStartedAt *time.Time           `json:"trial_started_at,omitempty"`
	TrialEndsAt    *time.Time           `json:"trial_ends_at,omitempty"`
	PremiumUntil   *time.Time           `json:"premium_until,omitempty"`
	CreatedAt      time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Employer) TableName() string { return "employers" }

// Admin is a user allowed to act for an employer. The account creator is the OWNER.
type Admin struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	EmployerID   snowflake.ID `gorm:"not null;index" json:"employer_id"`
	Email        string       `gorm:"type:text;not null;uniqueIndex:ux_employer_admins_email" json:"email"`
	PasswordHash string       `gorm:"type:text;not null" json:"-"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Role         string       `gorm:"type:text;not null" json:"role"`
	CreatedAt    time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Admin) TableName() string { return "employer_admins" }

// Profile is the one-to-one company profile filled in the PROFILE step.
type Profile struct {
	EmployerID  snowflake.ID `gorm:"primaryKey" json:"employer_id"`
	Industry    string       `gorm:"type:text" json:"industry"`
	Size        string       `gorm:"type:text" json:"size"`
	Description string       `gorm:"type:text" json:"description"`
	Address     string       `gorm:"type:text" json:"address"`
	City        string       `gorm:"type:text" json:"city"`
	Country     string       `gorm:"type:text" json:"country"`
	Phone       string       `gorm:"type:text" json:"phone"`
	LogoURL     string       `gorm:"column:logo_url;type:text" json:"logo_url"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Profile) TableName() string { return "employer_profiles" }

const RoleOwner = "OWNER"
