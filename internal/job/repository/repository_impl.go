package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hirehub/internal/job/domain"
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

func (r *repository) FindDraftByTitle(ctx context.Context, employerID snowflake.ID, title string) (*domain.Job, error) {
	var job domain.Job
	err := r.db.WithContext(ctx).
		Where("employer_id = ? AND title = ? AND active = ?", employerID, title, false).
		Order("id ASC").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repository) Insert(ctx context.Context, job domain.Job) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO jobs (id, employer_id, title, description, location, employment_type, salary_min, salary_max, active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		job.ID,
		job.EmployerID,
		job.Title,
		job.Description,
		job.Location,
		job.EmploymentType,
		job.SalaryMin,
		job.SalaryMax,
		job.Active,
		job.CreatedAt,
		job.UpdatedAt,
	).Error
}

func (r *repository) UpdateDraft(ctx context.Context, job domain.Job) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE jobs
		 SET description = ?, location = ?, employment_type = ?, salary_min = ?, salary_max = ?, updated_at = ?
		 WHERE id = ? AND active = ?`,
		job.Description,
		job.Location,
		job.EmploymentType,
		job.SalaryMin,
		job.SalaryMax,
		job.UpdatedAt,
		job.ID,
		false,
	).Error
}

func (r *repository) CountByEmployer(ctx context.Context, employerID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Job{}).Where("employer_id = ?", employerID).Count(&count).Error
	return count, err
}
