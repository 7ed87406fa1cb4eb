package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hirehub/internal/verification/domain"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) FindPending(ctx context.Context, employerID snowflake.ID, fingerprint string) (*domain.Request, error) {
	var req domain.Request
	err := r.db.WithContext(ctx).
		Where("employer_id = ? AND fingerprint = ? AND status = ?", employerID, fingerprint, domain.StatusPending).
		Order("id ASC").
		First(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *repository) CreateRequest(ctx context.Context, req domain.Request) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO verification_requests (id, employer_id, note, status, fingerprint, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		req.ID,
		req.EmployerID,
		req.Note,
		req.Status,
		req.Fingerprint,
		req.CreatedAt,
	).Error
}

func (r *repository) CreateFiles(ctx context.Context, files []domain.File) error {
	if len(files) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&files).Error
}

func (r *repository) CountFiles(ctx context.Context, requestID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.File{}).Where("request_id = ?", requestID).Count(&count).Error
	return count, err
}
