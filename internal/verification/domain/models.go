// Package domain contains employer verification submissions.
package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

const StatusPending = "PENDING"

// Request is one verification submission. Fingerprint identifies identical
// submissions so a retried upload returns the existing request.
type Request struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	EmployerID  snowflake.ID `gorm:"not null;index" json:"employer_id"`
	Note        string       `gorm:"type:text" json:"note"`
	Status      string       `gorm:"type:text;not null" json:"status"`
	Fingerprint string       `gorm:"type:text;not null;index" json:"-"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	Files       []File       `gorm:"foreignKey:RequestID" json:"files,omitempty"`
}

// TableName sets the database table name.
func (Request) TableName() string { return "verification_requests" }

type File struct {
	ID         snowflake.ID `gorm:"primaryKey" json:"id"`
	RequestID  snowflake.ID `gorm:"not null;index" json:"request_id"`
	StorageKey string       `gorm:"type:text;not null;uniqueIndex:ux_verification_files_key" json:"storage_key"`
	FileName   string       `gorm:"type:text;not null" json:"file_name"`
	URL        string       `gorm:"column:url;type:text;not null" json:"url"`
	MimeType   string       `gorm:"type:text" json:"mime_type"`
	SizeBytes  int64        `gorm:"not null;default:0" json:"size_bytes"`
	CreatedAt  time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (File) TableName() string { return "verification_files" }

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindPending(ctx context.Context, employerID snowflake.ID, fingerprint string) (*Request, error)
	CreateRequest(ctx context.Context, req Request) error
	CreateFiles(ctx context.Context, files []File) error
	CountFiles(ctx context.Context, requestID snowflake.ID) (int64, error)
}
