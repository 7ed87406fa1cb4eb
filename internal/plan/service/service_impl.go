package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hirehub/internal/cache"
	"github.com/smallbiznis/hirehub/internal/clock"
	"github.com/smallbiznis/hirehub/internal/config"
	"github.com/smallbiznis/hirehub/internal/plan/domain"
	"github.com/smallbiznis/hirehub/pkg/money"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	GenID *snowflake.Node
	Clock clock.Clock
	Cache cache.PlanCache
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	genID *snowflake.Node
	clock clock.Clock
	cache cache.PlanCache
}

func NewService(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("plan.service"),
		repo:  p.Repo,
		genID: p.GenID,
		clock: p.Clock,
		cache: p.Cache,
	}
}

func (s *Service) List(ctx context.Context) ([]domain.PlanResponse, error) {
	plans, ok := s.cache.GetActive()
	if !ok {
		var err error
		plans, err = s.repo.List(ctx, true)
		if err != nil {
			return nil, err
		}
		s.cache.SetActive(plans)
	}

	resp := make([]domain.PlanResponse, 0, len(plans))
	for _, p := range plans {
		resp = append(resp, toResponse(p))
	}
	return resp, nil
}

func (s *Service) Resolve(ctx context.Context, idOrSlug string) (*domain.Plan, error) {
	key := strings.TrimSpace(idOrSlug)
	if key == "" {
		return nil, domain.ErrInvalidPlan
	}
	if cached, ok := s.cache.GetPlan(key); ok {
		return &cached, nil
	}

	var (
		plan *domain.Plan
		err  error
	)
	if id, parseErr := snowflake.ParseString(key); parseErr == nil && id > 0 {
		plan, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
	}
	if plan == nil {
		plan, err = s.repo.GetBySlug(ctx, strings.ToLower(key))
		if err != nil {
			return nil, err
		}
	}
	if plan == nil {
		return nil, domain.ErrPlanNotFound
	}

	s.cache.SetPlan(*plan)
	return plan, nil
}

// Seed upserts catalog entries by slug. Pricing of plans that already have
// payments is left untouched; only name and availability follow the seed.
func (s *Service) Seed(ctx context.Context, seeds []config.PlanSeed) error {
	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		for _, seed := range seeds {
			desired, err := s.fromSeed(seed, now)
			if err != nil {
				return err
			}

			existing, err := repo.GetBySlug(ctx, desired.Slug)
			if err != nil {
				return err
			}
			if existing == nil {
				if err := repo.Insert(ctx, desired); err != nil {
					return fmt.Errorf("insert plan %s: %w", desired.Slug, err)
				}
				s.log.Info("plan created", zap.String("slug", desired.Slug), zap.Int64("amount", desired.Amount.Int64()))
				continue
			}

			updated := *existing
			updated.Name = desired.Name
			updated.Active = desired.Active
			updated.UpdatedAt = now
			if !existing.SamePricing(desired) {
				referenced, err := repo.IsReferenced(ctx, existing.ID)
				if err != nil {
					return err
				}
				if referenced {
					s.log.Warn("plan pricing is frozen by existing payments, seed change ignored",
						zap.String("slug", existing.Slug),
						zap.Int64("amount", existing.Amount.Int64()),
						zap.Int64("seed_amount", desired.Amount.Int64()),
					)
				} else {
					updated.Amount = desired.Amount
					updated.Currency = desired.Currency
					updated.Interval = desired.Interval
					updated.TrialDays = desired.TrialDays
				}
			}
			if err := repo.Update(ctx, updated); err != nil {
				return fmt.Errorf("update plan %s: %w", existing.Slug, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.Invalidate()
	return nil
}

func (s *Service) Invalidate() {
	s.cache.Purge()
}

func (s *Service) fromSeed(seed config.PlanSeed, now time.Time) (domain.Plan, error) {
	interval, err := domain.ParseInterval(seed.Interval)
	if err != nil {
		return domain.Plan{}, fmt.Errorf("%w: %v", domain.ErrInvalidPlan, err)
	}
	if seed.Amount < 0 || seed.TrialDays < 0 {
		return domain.Plan{}, domain.ErrInvalidPlan
	}
	return domain.Plan{
		ID:        s.genID.Generate(),
		Slug:      strings.ToLower(strings.TrimSpace(seed.Slug)),
		Name:      strings.TrimSpace(seed.Name),
		Amount:    money.Amount(seed.Amount),
		Currency:  strings.ToUpper(strings.TrimSpace(seed.Currency)),
		Interval:  interval,
		Active:    seed.Active,
		TrialDays: seed.TrialDays,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func toResponse(p domain.Plan) domain.PlanResponse {
	return domain.PlanResponse{
		ID:        p.ID.String(),
		Slug:      p.Slug,
		Name:      p.Name,
		Amount:    p.Amount.Int64(),
		Currency:  p.Currency,
		Interval:  string(p.Interval),
		TrialDays: p.TrialDays,
		Free:      p.IsFree(),
	}
}
