package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context, activeOnly bool) ([]Plan, error)
	GetByID(ctx context.Context, id snowflake.ID) (*Plan, error)
	GetBySlug(ctx context.Context, slug string) (*Plan, error)
	Insert(ctx context.Context, plan Plan) error
	Update(ctx context.Context, plan Plan) error
	IsReferenced(ctx context.Context, id snowflake.ID) (bool, error)
}
