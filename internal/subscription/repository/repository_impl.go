package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hirehub/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct {
	db *gorm.DB
}

func Provide(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) WithTx(tx *gorm.DB) domain.Repository {
	return &repo{db: tx}
}

func (r *repo) Insert(ctx context.Context, sub *domain.Subscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

func (r *repo) Latest(ctx context.Context, employerID snowflake.ID) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.db.WithContext(ctx).
		Where("employer_id = ?", employerID).
		Order("created_at DESC, id DESC").
		First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repo) FindActive(ctx context.Context, employerID snowflake.ID) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	err := r.db.WithContext(ctx).
		Where("employer_id = ? AND status = ?", employerID, domain.SubscriptionStatusActive).
		Order("id ASC").
		Find(&subs).Error
	return subs, err
}

func (r *repo) FindByOrderID(ctx context.Context, orderID string) (*domain.Subscription, error) {
	var sub domain.Subscription
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

func (r *repo) CancelActive(ctx context.Context, employerID snowflake.ID, at time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET status = ?, canceled_at = ?, updated_at = ?
		 WHERE employer_id = ? AND status = ?`,
		domain.SubscriptionStatusCanceled,
		at,
		at,
		employerID,
		domain.SubscriptionStatusActive,
	)
	return res.RowsAffected, res.Error
}

func (r *repo) Cancel(ctx context.Context, id snowflake.ID, at time.Time) error {
	return r.db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET status = ?, canceled_at = ?, updated_at = ?
		 WHERE id = ? AND status = ?`,
		domain.SubscriptionStatusCanceled,
		at,
		at,
		id,
		domain.SubscriptionStatusActive,
	).Error
}

func (r *repo) ListByEmployer(ctx context.Context, employerID snowflake.ID) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	err := r.db.WithContext(ctx).
		Where("employer_id = ?", employerID).
		Order("created_at ASC, id ASC").
		Find(&subs).Error
	return subs, err
}
