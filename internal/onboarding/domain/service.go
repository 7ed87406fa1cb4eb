// Package domain defines the employer onboarding wizard operations.
package domain

import (
	"context"
	"errors"
	"time"
)

// Service drives an employer through ACCOUNT, PROFILE, PACKAGE, JOB, VERIFY and DONE.
// Each step only ever moves the employer forward.
type Service interface {
	CreateAccount(ctx context.Context, req CreateAccountRequest) (*CreateAccountResponse, error)
	UpsertProfile(ctx context.Context, employerID string, req ProfileRequest) error
	ChoosePlan(ctx context.Context, employerID string, req ChoosePlanRequest) (*ChoosePlanResponse, error)
	CreateDraftJob(ctx context.Context, employerID string, req DraftJobRequest) (*DraftJobResponse, error)
	SubmitVerification(ctx context.Context, employerID string, req VerificationRequest) (*VerificationResponse, error)
	GetEmployer(ctx context.Context, employerID string) (*EmployerView, error)
}

var ErrInvalidEmployerID = errors.New("invalid_employer_id")

type CreateAccountRequest struct {
	CompanyName string `json:"company_name" validate:"required,max=200"`
	DisplayName string `json:"display_name" validate:"required,max=200"`
	AdminName   string `json:"admin_name" validate:"omitempty,max=200"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=128"`
	Website     string `json:"website" validate:"omitempty,url,max=500"`
}

type CreateAccountResponse struct {
	EmployerID string `json:"employer_id"`
	Slug       string `json:"slug"`
}

type ProfileRequest struct {
	Industry    string `json:"industry" validate:"omitempty,max=100"`
	Size        string `json:"size" validate:"omitempty,max=50"`
	Description string `json:"description" validate:"omitempty,max=5000"`
	Address     string `json:"address" validate:"omitempty,max=500"`
	City        string `json:"city" validate:"omitempty,max=100"`
	Country     string `json:"country" validate:"omitempty,max=100"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
	LogoURL     string `json:"logo_url" validate:"omitempty,url,max=1000"`
}

type ChoosePlanRequest struct {
	Plan string `json:"plan" validate:"required,max=64"`
}

type ChoosePlanResponse struct {
	Mode          string     `json:"mode"`
	PlanID        string     `json:"plan_id"`
	BillingStatus string     `json:"billing_status"`
	TrialEndsAt   *time.Time `json:"trial_ends_at,omitempty"`
	PremiumUntil  *time.Time `json:"premium_until,omitempty"`
	Step          string     `json:"onboarding_step"`
}

type DraftJobRequest struct {
	Title          string `json:"title" validate:"required,max=200"`
	Description    string `json:"description" validate:"omitempty,max=10000"`
	Location       string `json:"location" validate:"omitempty,max=200"`
	EmploymentType string `json:"employment_type" validate:"omitempty,oneof=full_time part_time contract internship freelance"`
	SalaryMin      *int64 `json:"salary_min" validate:"omitempty,min=0"`
	SalaryMax      *int64 `json:"salary_max" validate:"omitempty,min=0"`
}

type DraftJobResponse struct {
	JobID string `json:"job_id"`
}

type VerificationRequest struct {
	Note  string                  `json:"note" validate:"omitempty,max=2000"`
	Files []VerificationFileInput `json:"files" validate:"required,min=1,max=10,dive"`
}

type VerificationFileInput struct {
	FileName  string `json:"file_name" validate:"required,max=255"`
	URL       string `json:"url" validate:"required,url,max=1000"`
	MimeType  string `json:"mime_type" validate:"omitempty,max=100"`
	SizeBytes int64  `json:"size_bytes" validate:"min=0"`
}

type VerificationResponse struct {
	VerificationID string `json:"verification_id"`
}

// EmployerView is the projection used to resume the wizard.
type EmployerView struct {
	ID             string       `json:"id"`
	Slug           string       `json:"slug"`
	DisplayName    string       `json:"display_name"`
	LegalName      string       `json:"legal_name"`
	Website        string       `json:"website,omitempty"`
	OnboardingStep string       `json:"onboarding_step"`
	BillingStatus  string       `json:"billing_status"`
	CurrentPlanID  string       `json:"current_plan_id,omitempty"`
	TrialEndsAt    *time.Time   `json:"trial_ends_at,omitempty"`
	PremiumUntil   *time.Time   `json:"premium_until,omitempty"`
	Profile        *ProfileView `json:"profile,omitempty"`
}

type ProfileView struct {
	Industry    string `json:"industry"`
	Size        string `json:"size"`
	Description string `json:"description"`
	Address     string `json:"address"`
	City        string `json:"city"`
	Country     string `json:"country"`
	Phone       string `json:"phone"`
	LogoURL     string `json:"logo_url"`
}
