package repository

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hirehub/internal/plan/domain"
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

func (r *repository) List(ctx context.Context, activeOnly bool) ([]domain.Plan, error) {
	var plans []domain.Plan
	query := `SELECT id, slug, name, amount, currency, billing_interval, active, trial_days, created_at, updated_at
		FROM plans`
	if activeOnly {
		query += ` WHERE active = true`
	}
	query += ` ORDER BY amount ASC, id ASC`
	if err := r.db.WithContext(ctx).Raw(query).Scan(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) GetBySlug(ctx context.Context, slug string) (*domain.Plan, error) {
	var plan domain.Plan
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&plan).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

func (r *repository) Insert(ctx context.Context, plan domain.Plan) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO plans (id, slug, name, amount, currency, billing_interval, active, trial_days, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID,
		plan.Slug,
		plan.Name,
		plan.Amount,
		plan.Currency,
		plan.Interval,
		plan.Active,
		plan.TrialDays,
		plan.CreatedAt,
		plan.UpdatedAt,
	).Error
}

func (r *repository) Update(ctx context.Context, plan domain.Plan) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE plans
		 SET name = ?, amount = ?, currency = ?, billing_interval = ?, active = ?, trial_days = ?, updated_at = ?
		 WHERE id = ?`,
		plan.Name,
		plan.Amount,
		plan.Currency,
		plan.Interval,
		plan.Active,
		plan.TrialDays,
		plan.UpdatedAt,
		plan.ID,
	).Error
}

func (r *repository) IsReferenced(ctx context.Context, id snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM payments WHERE plan_id = ?`,
		id,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
