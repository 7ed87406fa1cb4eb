package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/hirehub/internal/billing/domain"
	"github.com/smallbiznis/hirehub/internal/employer/domain"
	"github.com/smallbiznis/hirehub/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
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

func (r *repository) Create(ctx context.Context, e domain.Employer) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO employers (id, slug, display_name, legal_name, website, onboarding_step, billing_status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.Slug,
		e.DisplayName,
		e.LegalName,
		e.Website,
		e.OnboardingStep,
		e.BillingStatus,
		e.CreatedAt,
		e.UpdatedAt,
	).Error
}

func (r *repository) CreateAdmin(ctx context.Context, a domain.Admin) error {
	return r.db.WithContext(ctx).Exec(
		`INSERT INTO employer_admins (id, employer_id, email, password_hash, name, role, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID,
		a.EmployerID,
		a.Email,
		a.PasswordHash,
		a.Name,
		a.Role,
		a.CreatedAt,
	).Error
}

func (r *repository) GetByID(ctx context.Context, id snowflake.ID) (*domain.Employer, error) {
	return r.first(r.db.WithContext(ctx), id)
}

func (r *repository) GetForUpdate(ctx context.Context, id snowflake.ID) (*domain.Employer, error) {
	q := r.db.WithContext(ctx)
	if db.SupportsRowLocking(r.db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.first(q, id)
}

func (r *repository) first(q *gorm.DB, id snowflake.ID) (*domain.Employer, error) {
	var e domain.Employer
	err := q.Where("id = ?", id).First(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) ListSlugsWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var slugs []string
	err := r.db.WithContext(ctx).Raw(
		`SELECT slug FROM employers WHERE slug = ? OR slug LIKE ?`,
		prefix,
		prefix+"-%",
	).Scan(&slugs).Error
	if err != nil {
		return nil, err
	}
	return slugs, nil
}

func (r *repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(1) FROM employer_admins WHERE email = ?`,
		email,
	).Scan(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) GetOwner(ctx context.Context, employerID snowflake.ID) (*domain.Admin, error) {
	var admin domain.Admin
	err := r.db.WithContext(ctx).
		Where("employer_id = ? AND role = ?", employerID, domain.RoleOwner).
		Order("created_at ASC").
		First(&admin).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &admin, nil
}

func (r *repository) UpdateStep(ctx context.Context, id snowflake.ID, step domain.Step, at time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE employers SET onboarding_step = ?, updated_at = ? WHERE id = ?`,
		step,
		at,
		id,
	).Error
}

func (r *repository) UpdateBilling(ctx context.Context, id snowflake.ID, s domain.BillingState, at time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE employers
		 SET billing_status = ?, current_plan_id = ?, trial_started_at = ?, trial_ends_at = ?, premium_until = ?, updated_at = ?
		 WHERE id = ?`,
		s.BillingStatus,
		s.CurrentPlanID,
		s.TrialStartedAt,
		s.TrialEndsAt,
		s.PremiumUntil,
		at,
		id,
	).Error
}

func (r *repository) GetProfile(ctx context.Context, employerID snowflake.ID) (*domain.Profile, error) {
	var p domain.Profile
	err := r.db.WithContext(ctx).Where("employer_id = ?", employerID).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repository) UpsertProfile(ctx context.Context, p domain.Profile) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "employer_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"industry", "size", "description", "address", "city", "country", "phone", "logo_url", "updated_at",
		}),
	}).Create(&p).Error
}

func (r *repository) ListBillingExpired(ctx context.Context, status billingdomain.Status, now time.Time, limit int) ([]domain.Employer, error) {
	column := "premium_until"
	if status == billingdomain.StatusTrial {
		column = "trial_ends_at"
	}
	var employers []domain.Employer
	err := r.db.WithContext(ctx).
		Where("billing_status = ?", status).
		Where(column+" IS NOT NULL AND "+column+" < ?", now).
		Order("id ASC").
		Limit(limit).
		Find(&employers).Error
	if err != nil {
		return nil, err
	}
	return employers, nil
}

func (r *repository) TransitionBilling(ctx context.Context, id snowflake.ID, from, to billingdomain.Status, at time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE employers SET billing_status = ?, updated_at = ? WHERE id = ? AND billing_status = ?`,
		to,
		at,
		id,
		from,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}
