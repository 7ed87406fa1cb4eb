package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hirehub/internal/billing/domain"
	"github.com/smallbiznis/hirehub/internal/clock"
	employerdomain "github.com/smallbiznis/hirehub/internal/employer/domain"
	obsmetrics "github.com/smallbiznis/hirehub/internal/observability/metrics"
	plandomain "github.com/smallbiznis/hirehub/internal/plan/domain"
	subscriptiondomain "github.com/smallbiznis/hirehub/internal/subscription/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sweepBatchSize = 200

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	GenID            *snowflake.Node
	Clock            clock.Clock
	EmployerRepo     employerdomain.Repository
	PlanRepo         plandomain.Repository
	SubscriptionRepo subscriptiondomain.Repository
	Metrics          *obsmetrics.Metrics        `optional:"true"`
	SweeperMetrics   *obsmetrics.SweeperMetrics `optional:"true"`
}

type Service struct {
	db             *gorm.DB
	log            *zap.Logger
	genID          *snowflake.Node
	clock          clock.Clock
	employers      employerdomain.Repository
	plans          plandomain.Repository
	subscriptions  subscriptiondomain.Repository
	metrics        *obsmetrics.Metrics
	sweeperMetrics *obsmetrics.SweeperMetrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:             p.DB,
		log:            p.Log.Named("billing.service"),
		genID:          p.GenID,
		clock:          p.Clock,
		employers:      p.EmployerRepo,
		plans:          p.PlanRepo,
		subscriptions:  p.SubscriptionRepo,
		metrics:        p.Metrics,
		sweeperMetrics: p.SweeperMetrics,
	}
}

func (s *Service) Decide(ctx context.Context, tx *gorm.DB, employerID snowflake.ID, plan plandomain.Plan) (*domain.Decision, error) {
	if tx == nil {
		tx = s.db
	}
	employers := s.employers.WithTx(tx)
	subs := s.subscriptions.WithTx(tx)

	employer, err := employers.GetForUpdate(ctx, employerID)
	if err != nil {
		return nil, err
	}
	if employer == nil {
		return nil, employerdomain.ErrEmployerNotFound
	}
	if !plan.Active {
		return nil, plandomain.ErrPlanUnavailable
	}

	now := s.clock.Now()
	onPlan := employer.CurrentPlanID != nil && *employer.CurrentPlanID == plan.ID
	state := currentState(employer)
	state.CurrentPlanID = &plan.ID

	switch {
	case plan.HasTrial():
		if onPlan && employer.TrialStartedAt != nil && employer.TrialEndsAt != nil {
			return &domain.Decision{
				Mode:         domain.ModeTrial,
				PlanID:       plan.ID,
				Status:       employer.BillingStatus,
				TrialEndsAt:  employer.TrialEndsAt,
				PremiumUntil: employer.PremiumUntil,
				Unchanged:    true,
			}, nil
		}
		endsAt := plandomain.AddDays(now, plan.TrialDays)
		state.BillingStatus = domain.StatusTrial
		state.TrialStartedAt = &now
		state.TrialEndsAt = &endsAt
		if err := employers.UpdateBilling(ctx, employer.ID, state, now); err != nil {
			return nil, err
		}
		s.recordTransition(ctx, employer.BillingStatus, state.BillingStatus)
		s.log.Info("trial started",
			zap.String("employer_id", employer.ID.String()),
			zap.String("plan", plan.Slug),
			zap.Time("trial_ends_at", endsAt),
		)
		return &domain.Decision{
			Mode:         domain.ModeTrial,
			PlanID:       plan.ID,
			Status:       state.BillingStatus,
			TrialEndsAt:  state.TrialEndsAt,
			PremiumUntil: state.PremiumUntil,
		}, nil

	case plan.IsFree():
		if onPlan && employer.BillingStatus == domain.StatusActive && employer.PremiumUntil != nil {
			latest, err := subs.Latest(ctx, employer.ID)
			if err != nil {
				return nil, err
			}
			if latest != nil && latest.PlanID == plan.ID && latest.Status == subscriptiondomain.SubscriptionStatusActive {
				return &domain.Decision{
					Mode:           domain.ModeFreeActive,
					PlanID:         plan.ID,
					Status:         employer.BillingStatus,
					TrialEndsAt:    employer.TrialEndsAt,
					PremiumUntil:   employer.PremiumUntil,
					SubscriptionID: &latest.ID,
					Unchanged:      true,
				}, nil
			}
		}

		until := plandomain.AddInterval(now, plan.Interval)
		sub, err := s.startSubscription(ctx, subs, employer.ID, plan.ID, "", now, until)
		if err != nil {
			return nil, err
		}
		state.BillingStatus = domain.StatusActive
		state.PremiumUntil = &until
		if err := employers.UpdateBilling(ctx, employer.ID, state, now); err != nil {
			return nil, err
		}
		s.recordTransition(ctx, employer.BillingStatus, state.BillingStatus)
		s.log.Info("free plan activated",
			zap.String("employer_id", employer.ID.String()),
			zap.String("plan", plan.Slug),
			zap.Time("premium_until", until),
		)
		return &domain.Decision{
			Mode:           domain.ModeFreeActive,
			PlanID:         plan.ID,
			Status:         state.BillingStatus,
			TrialEndsAt:    state.TrialEndsAt,
			PremiumUntil:   state.PremiumUntil,
			SubscriptionID: &sub.ID,
		}, nil

	default:
		if !onPlan {
			if err := employers.UpdateBilling(ctx, employer.ID, state, now); err != nil {
				return nil, err
			}
		}
		return &domain.Decision{
			Mode:         domain.ModeNeedsPayment,
			PlanID:       plan.ID,
			Status:       employer.BillingStatus,
			TrialEndsAt:  employer.TrialEndsAt,
			PremiumUntil: employer.PremiumUntil,
			Unchanged:    onPlan,
		}, nil
	}
}

// ApplySettlement activates the employer for one plan interval, extending
// from the later of now and the current premiumUntil.
func (s *Service) ApplySettlement(ctx context.Context, tx *gorm.DB, in domain.Settlement) error {
	if in.EmployerID == 0 {
		return domain.ErrMissingEmployer
	}
	if tx == nil {
		tx = s.db
	}
	employers := s.employers.WithTx(tx)
	subs := s.subscriptions.WithTx(tx)

	employer, err := employers.GetForUpdate(ctx, in.EmployerID)
	if err != nil {
		return err
	}
	if employer == nil {
		return employerdomain.ErrEmployerNotFound
	}

	if in.OrderID != "" {
		existing, err := subs.FindByOrderID(ctx, in.OrderID)
		if err != nil {
			return err
		}
		if existing != nil {
			s.log.Debug("settlement already applied", zap.String("order_id", in.OrderID))
			return nil
		}
	}

	plan, err := s.plans.WithTx(tx).GetByID(ctx, in.PlanID)
	if err != nil {
		return err
	}
	if plan == nil {
		return plandomain.ErrPlanNotFound
	}

	now := in.At
	if now.IsZero() {
		now = s.clock.Now()
	}
	base := now
	if employer.PremiumUntil != nil && employer.PremiumUntil.After(base) {
		base = *employer.PremiumUntil
	}
	until := plandomain.AddInterval(base, plan.Interval)

	if _, err := s.startSubscription(ctx, subs, employer.ID, plan.ID, in.OrderID, base, until); err != nil {
		return err
	}

	state := currentState(employer)
	state.BillingStatus = domain.StatusActive
	state.CurrentPlanID = &plan.ID
	state.PremiumUntil = &until
	if err := employers.UpdateBilling(ctx, employer.ID, state, now); err != nil {
		return err
	}

	s.recordTransition(ctx, employer.BillingStatus, state.BillingStatus)
	s.log.Info("settlement applied",
		zap.String("employer_id", employer.ID.String()),
		zap.String("order_id", in.OrderID),
		zap.String("plan", plan.Slug),
		zap.Time("premium_until", until),
	)
	return nil
}

// ApplyReversal cancels the subscription funded by a refunded or charged back payment.
func (s *Service) ApplyReversal(ctx context.Context, tx *gorm.DB, in domain.Settlement) error {
	if in.EmployerID == 0 {
		return domain.ErrMissingEmployer
	}
	if tx == nil {
		tx = s.db
	}
	employers := s.employers.WithTx(tx)
	subs := s.subscriptions.WithTx(tx)

	employer, err := employers.GetForUpdate(ctx, in.EmployerID)
	if err != nil {
		return err
	}
	if employer == nil {
		return employerdomain.ErrEmployerNotFound
	}

	now := in.At
	if now.IsZero() {
		now = s.clock.Now()
	}

	sub, err := subs.FindByOrderID(ctx, in.OrderID)
	if err != nil {
		return err
	}
	if sub == nil {
		// settlement was never applied for this order; only cancel a matching active plan
		active, err := subs.FindActive(ctx, employer.ID)
		if err != nil {
			return err
		}
		for _, candidate := range active {
			if candidate.PlanID == in.PlanID {
				sub = &candidate
				break
			}
		}
	}
	if sub != nil && sub.Status == subscriptiondomain.SubscriptionStatusActive {
		if err := subs.Cancel(ctx, sub.ID, now); err != nil {
			return err
		}
	}

	if employer.BillingStatus == domain.StatusCanceled {
		return nil
	}
	state := currentState(employer)
	state.BillingStatus = domain.StatusCanceled
	if err := employers.UpdateBilling(ctx, employer.ID, state, now); err != nil {
		return err
	}
	s.recordTransition(ctx, employer.BillingStatus, state.BillingStatus)
	s.log.Warn("payment reversed, billing canceled",
		zap.String("employer_id", employer.ID.String()),
		zap.String("order_id", in.OrderID),
	)
	return nil
}

// SweepExpired moves trials past trialEndsAt and active billing past premiumUntil to past_due.
func (s *Service) SweepExpired(ctx context.Context) (*domain.SweepResult, error) {
	start := time.Now()
	result := &domain.SweepResult{}

	trials, err := s.sweep(ctx, domain.StatusTrial)
	result.TrialsExpired = trials
	if err != nil {
		s.sweeperMetrics.ObserveRun(obsmetrics.SweeperResultError, time.Since(start))
		return result, err
	}
	lapsed, err := s.sweep(ctx, domain.StatusActive)
	result.ActiveLapsed = lapsed
	if err != nil {
		s.sweeperMetrics.ObserveRun(obsmetrics.SweeperResultError, time.Since(start))
		return result, err
	}

	s.sweeperMetrics.ObserveRun(obsmetrics.SweeperResultOK, time.Since(start))
	s.sweeperMetrics.AddExpired(string(domain.StatusTrial), trials)
	s.sweeperMetrics.AddExpired(string(domain.StatusActive), lapsed)
	return result, nil
}

func (s *Service) sweep(ctx context.Context, from domain.Status) (int, error) {
	moved := 0
	for {
		now := s.clock.Now()
		batch, err := s.employers.ListBillingExpired(ctx, from, now, sweepBatchSize)
		if err != nil {
			return moved, fmt.Errorf("list expired %s: %w", from, err)
		}
		if len(batch) == 0 {
			return moved, nil
		}

		progressed := 0
		for _, employer := range batch {
			ok, err := s.employers.TransitionBilling(ctx, employer.ID, from, domain.StatusPastDue, now)
			if err != nil {
				return moved, err
			}
			if ok {
				moved++
				progressed++
				s.recordTransition(ctx, from, domain.StatusPastDue)
				s.log.Info("billing expired",
					zap.String("employer_id", employer.ID.String()),
					zap.String("from", string(from)),
				)
			}
		}
		if progressed == 0 || len(batch) < sweepBatchSize {
			return moved, nil
		}
	}
}

func (s *Service) startSubscription(ctx context.Context, subs subscriptiondomain.Repository, employerID, planID snowflake.ID, orderID string, start, end time.Time) (*subscriptiondomain.Subscription, error) {
	now := s.clock.Now()
	if _, err := subs.CancelActive(ctx, employerID, now); err != nil {
		return nil, err
	}
	sub := &subscriptiondomain.Subscription{
		ID:                 s.genID.Generate(),
		EmployerID:         employerID,
		PlanID:             planID,
		Status:             subscriptiondomain.SubscriptionStatusActive,
		CurrentPeriodStart: start,
		CurrentPeriodEnd:   end,
		OrderID:            orderID,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := subs.Insert(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *Service) recordTransition(ctx context.Context, from, to domain.Status) {
	if from == to {
		return
	}
	s.metrics.RecordBillingTransition(ctx, string(from), string(to))
}

func currentState(e *employerdomain.Employer) employerdomain.BillingState {
	return employerdomain.BillingState{
		BillingStatus:  e.BillingStatus,
		CurrentPlanID:  e.CurrentPlanID,
		TrialStartedAt: e.TrialStartedAt,
		TrialEndsAt:    e.TrialEndsAt,
		PremiumUntil:   e.PremiumUntil,
	}
}
