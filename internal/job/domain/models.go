// Package domain contains job postings created during onboarding.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Job is a posting. Onboarding only creates inactive drafts.
type Job struct {
	ID             snowflake.ID `gorm:"primaryKey" json:"id"`
	EmployerID     snowflake.ID `gorm:"not null;index:ix_jobs_employer_title,priority:1" json:"employer_id"`
	Title          string       `gorm:"type:text;not null;index:ix_jobs_employer_title,priority:2" json:"title"`
	Description    string       `gorm:"type:text" json:"description"`
	Location       string       `gorm:"type:text" json:"location"`
	EmploymentType string       `gorm:"type:text" json:"employment_type"`
	SalaryMin      *int64       `json:"salary_min,omitempty"`
	SalaryMax      *int64       `json:"salary_max,omitempty"`
	Active         bool         `gorm:"not null;default:false" json:"active"`
	CreatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Job) TableName() string { return "jobs" }

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindDraftByTitle(ctx context.Context, employerID snowflake.ID, title string) (*Job, error)
	Insert(ctx context.Context, job Job) error
	UpdateDraft(ctx context.Context, job Job) error
	CountByEmployer(ctx context.Context, employerID snowflake.ID) (int64, error)
}
