package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/hirehub/internal/clock"
	"github.com/smallbiznis/hirehub/internal/config"
	employerdomain "github.com/smallbiznis/hirehub/internal/employer/domain"
	obsmetrics "github.com/smallbiznis/hirehub/internal/observability/metrics"
	"github.com/smallbiznis/hirehub/internal/observability/tracing"
	"github.com/smallbiznis/hirehub/internal/payment/domain"
	plandomain "github.com/smallbiznis/hirehub/internal/plan/domain"
	"github.com/smallbiznis/hirehub/internal/providers/pdf"
	"github.com/smallbiznis/hirehub/internal/ratelimit"
	subscriptiondomain "github.com/smallbiznis/hirehub/internal/subscription/domain"
	"github.com/smallbiznis/hirehub/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB               *gorm.DB
	Log              *zap.Logger
	GenID            *snowflake.Node
	Clock            clock.Clock
	Config           config.Config
	Repo             domain.Repository
	Gateway          domain.Gateway
	PlanSvc          plandomain.Service
	EmployerRepo     employerdomain.Repository
	SubscriptionRepo subscriptiondomain.Repository
	PDF              pdf.Provider
	Guard            *ratelimit.PaymentGuard `optional:"true"`
	ObsMetrics       *obsmetrics.Metrics     `optional:"true"`
}

type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	cfg           config.Config
	repo          domain.Repository
	gateway       domain.Gateway
	plans         plandomain.Service
	employers     employerdomain.Repository
	subscriptions subscriptiondomain.Repository
	pdf           pdf.Provider
	guard         *ratelimit.PaymentGuard
	obsMetrics    *obsmetrics.Metrics
	validate      *validation.Validator
	orderIDs      *OrderIDGenerator
}

func NewService(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("payment.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		cfg:           p.Config,
		repo:          p.Repo,
		gateway:       p.Gateway,
		plans:         p.PlanSvc,
		employers:     p.EmployerRepo,
		subscriptions: p.SubscriptionRepo,
		pdf:           p.PDF,
		guard:         p.Guard,
		obsMetrics:    p.ObsMetrics,
		validate:      validation.New(),
		orderIDs:      NewOrderIDGenerator(p.Clock, p.Config.Payment.OrderIDPrefix),
	}
}

func (s *Service) CreateTransaction(ctx context.Context, req domain.CreateTransactionRequest) (*domain.CreateTransactionResponse, error) {
	req.Plan = strings.TrimSpace(req.Plan)
	req.EmployerID = strings.TrimSpace(req.EmployerID)
	req.UserID = strings.TrimSpace(req.UserID)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	plan, err := s.plans.Resolve(ctx, req.Plan)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, plandomain.ErrPlanNotFound
	}
	if !plan.Active {
		return nil, plandomain.ErrPlanUnavailable
	}
	if plan.Amount.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}
	if plan.Amount.IsZero() {
		return nil, domain.ErrInvalidOperation
	}

	var employerID *snowflake.ID
	customer := domain.Customer{}
	if req.Customer != nil {
		customer = *req.Customer
	}
	if req.EmployerID != "" {
		id, err := snowflake.ParseString(req.EmployerID)
		if err != nil {
			return nil, validation.NewFieldError("employer_id", "must be a valid id")
		}
		employer, err := s.employers.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		if employer == nil {
			return nil, employerdomain.ErrEmployerNotFound
		}
		employerID = &employer.ID
		if err := s.fillCustomer(ctx, employer, &customer); err != nil {
			return nil, err
		}
	}

	throttleKey := req.EmployerID
	if throttleKey == "" {
		throttleKey = req.UserID
	}
	if err := s.guard.AllowCheckout(ctx, throttleKey); err != nil {
		return nil, err
	}

	planKey := plan.Slug
	if planKey == "" {
		planKey = plan.ID.String()
	}
	orderID := s.orderIDs.Next(planKey)
	provider := s.gateway.Name()

	charge := domain.ChargeRequest{
		OrderID:     orderID,
		GrossAmount: plan.Amount,
		Currency:    plan.Currency,
		Item: domain.ItemDetail{
			ID:       planKey,
			Name:     plan.Name,
			Price:    plan.Amount,
			Quantity: 1,
		},
		Customer: customer,
		Callbacks: domain.Callbacks{
			Finish:  s.cfg.Payment.FinishURL,
			Pending: s.cfg.Payment.PendingURL,
			Error:   s.cfg.Payment.ErrorURL,
		},
	}

	spanCtx, span := tracing.Start(ctx, "payment.gateway.create_transaction",
		attribute.String("provider", provider),
		attribute.String("order_id", orderID),
		attribute.String("plan", plan.Slug),
	)
	start := time.Now()
	resp, err := s.gateway.CreateTransaction(spanCtx, charge)
	s.obsMetrics.ObserveGatewayLatency(ctx, provider, time.Since(start))
	tracing.End(span, err)
	if err != nil {
		reason := "gateway_error"
		if errors.Is(err, domain.ErrGatewayTimeout) {
			reason = "timeout"
		}
		s.obsMetrics.RecordGatewayFailure(ctx, provider, reason)
		s.log.Warn("gateway transaction failed",
			zap.String("order_id", orderID),
			zap.String("plan", plan.Slug),
			zap.String("reason", reason),
			zap.Error(err),
		)
		return nil, err
	}

	// the gateway already holds the transaction; persist even if the caller went away
	persistCtx := context.WithoutCancel(ctx)
	now := s.clock.Now()
	var userID *string
	if req.UserID != "" {
		userID = &req.UserID
	}
	payment := &domain.Payment{
		ID:          s.genID.Generate(),
		OrderID:     orderID,
		EmployerID:  employerID,
		UserID:      userID,
		PlanID:      plan.ID,
		Provider:    provider,
		Currency:    plan.Currency,
		GrossAmount: plan.Amount,
		Status:      domain.StatusPending,
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		Metadata:    creationMetadata(plan, charge, now),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Insert(persistCtx, payment); err != nil {
		s.log.Error("failed to persist pending payment",
			zap.String("order_id", orderID),
			zap.Error(err),
		)
		return nil, err
	}

	s.obsMetrics.RecordTransactionCreated(persistCtx, provider, plan.Slug)
	s.log.Info("payment transaction created",
		zap.String("order_id", orderID),
		zap.String("plan", plan.Slug),
		zap.Int64("gross_amount", plan.Amount.Int64()),
	)

	return &domain.CreateTransactionResponse{
		Token:       resp.Token,
		RedirectURL: resp.RedirectURL,
		OrderID:     orderID,
	}, nil
}

func (s *Service) GetByOrderID(ctx context.Context, orderID string) (*domain.PaymentResponse, error) {
	payment, err := s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return toResponse(payment), nil
}

func (s *Service) load(ctx context.Context, orderID string) (*domain.Payment, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, domain.ErrPaymentNotFound
	}
	payment, err := s.repo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if payment == nil {
		return nil, domain.ErrPaymentNotFound
	}
	return payment, nil
}

// fillCustomer defaults the gateway customer to the employer and its owner.
func (s *Service) fillCustomer(ctx context.Context, employer *employerdomain.Employer, customer *domain.Customer) error {
	if customer.FirstName == "" {
		customer.FirstName = employer.DisplayName
	}
	if customer.Email != "" {
		return nil
	}
	owner, err := s.employers.GetOwner(ctx, employer.ID)
	if err != nil {
		return err
	}
	if owner != nil {
		customer.Email = owner.Email
	}
	return nil
}

func creationMetadata(plan *plandomain.Plan, charge domain.ChargeRequest, at time.Time) datatypes.JSON {
	meta := map[string]any{
		"plan_slug":     plan.Slug,
		"plan_name":     plan.Name,
		"plan_interval": string(plan.Interval),
		"item_id":       charge.Item.ID,
		"created_at":    at.Format(time.RFC3339),
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(raw)
}

func toResponse(p *domain.Payment) *domain.PaymentResponse {
	resp := &domain.PaymentResponse{
		OrderID:     p.OrderID,
		Status:      p.Status,
		GrossAmount: p.GrossAmount.Int64(),
		Currency:    p.Currency,
		PlanID:      p.PlanID.String(),
		NeedsReview: p.NeedsReview,
		RedirectURL: p.RedirectURL,
		SettledAt:   p.SettledAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
	if p.EmployerID != nil {
		resp.EmployerID = p.EmployerID.String()
	}
	if p.Method != nil {
		resp.Method = *p.Method
	}
	if p.TransactionID != nil {
		resp.TransactionID = *p.TransactionID
	}
	return resp
}
