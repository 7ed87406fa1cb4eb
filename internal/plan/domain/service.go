package domain

import (
	"context"
	"errors"

	"github.com/smallbiznis/hirehub/internal/config"
)

type Service interface {
	List(ctx context.Context) ([]PlanResponse, error)
	// Resolve finds a plan by snowflake id or slug, active or not.
	Resolve(ctx context.Context, idOrSlug string) (*Plan, error)
	Seed(ctx context.Context, seeds []config.PlanSeed) error
	Invalidate()
}

type PlanResponse struct {
	ID        string `json:"id"`
	Slug      string `json:"slug"`
	Name      string `json:"name"`
	Amount    int64  `json:"amount"`
	Currency  string `json:"currency"`
	Interval  string `json:"interval"`
	TrialDays int    `json:"trial_days"`
	Free      bool   `json:"free"`
}

var (
	ErrPlanNotFound    = errors.New("plan_not_found")
	ErrPlanUnavailable = errors.New("plan_unavailable")
	ErrInvalidPlan     = errors.New("invalid_plan")
)
