package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/hirehub/internal/payment/domain"
	"github.com/smallbiznis/hirehub/pkg/db"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func Provide(conn *gorm.DB) domain.Repository {
	return &repo{db: conn}
}

func (r *repo) WithTx(tx *gorm.DB) domain.Repository {
	return &repo{db: tx}
}

func (r *repo) Insert(ctx context.Context, payment *domain.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *repo) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	return r.get(ctx, r.db.WithContext(ctx), orderID)
}

func (r *repo) GetByOrderIDForUpdate(ctx context.Context, orderID string) (*domain.Payment, error) {
	q := r.db.WithContext(ctx)
	if db.SupportsRowLocking(r.db) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.get(ctx, q, orderID)
}

func (r *repo) get(_ context.Context, q *gorm.DB, orderID string) (*domain.Payment, error) {
	var item domain.Payment
	err := q.Where("order_id = ?", orderID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repo) ApplyNotification(ctx context.Context, payment *domain.Payment) (bool, error) {
	res := r.db.WithContext(ctx).Exec(
		`UPDATE payments
		 SET status = ?, method = ?, transaction_id = ?, fraud_status = ?,
			needs_review = ?, metadata = ?, settled_at = ?, updated_at = ?
		 WHERE order_id = ?`,
		payment.Status,
		payment.Method,
		payment.TransactionID,
		payment.FraudStatus,
		payment.NeedsReview,
		payment.Metadata,
		payment.SettledAt,
		payment.UpdatedAt,
		payment.OrderID,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) InsertEvent(ctx context.Context, event *domain.EventRecord) (bool, error) {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "dedup_key"}}, DoNothing: true}).
		Create(event)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ListEvents(ctx context.Context, orderID string) ([]domain.EventRecord, error) {
	var items []domain.EventRecord
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("received_at ASC, id ASC").
		Find(&items).Error
	return items, err
}
