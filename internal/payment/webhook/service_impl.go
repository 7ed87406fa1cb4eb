package webhook

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	billingdomain "github.com/smallbiznis/hirehub/internal/billing/domain"
	"github.com/smallbiznis/hirehub/internal/clock"
	"github.com/smallbiznis/hirehub/internal/config"
	obscontext "github.com/smallbiznis/hirehub/internal/observability/context"
	obsmetrics "github.com/smallbiznis/hirehub/internal/observability/metrics"
	"github.com/smallbiznis/hirehub/internal/observability/tracing"
	"github.com/smallbiznis/hirehub/internal/payment/domain"
	"github.com/smallbiznis/hirehub/internal/ratelimit"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var errUnknownOrder = errors.New("unknown_order")

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Repo       domain.Repository
	Gateway    domain.Gateway
	BillingSvc billingdomain.Service
	Billing    *config.BillingConfigHolder `optional:"true"`
	Guard      *ratelimit.PaymentGuard     `optional:"true"`
	ObsMetrics *obsmetrics.Metrics         `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	repo       domain.Repository
	gateway    domain.Gateway
	billingSvc billingdomain.Service
	billing    *config.BillingConfigHolder
	guard      *ratelimit.PaymentGuard
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Reconciler {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("payment.webhook"),
		genID:      p.GenID,
		clock:      p.Clock,
		repo:       p.Repo,
		gateway:    p.Gateway,
		billingSvc: p.BillingSvc,
		billing:    p.Billing,
		guard:      p.Guard,
		obsMetrics: p.ObsMetrics,
	}
}

// Handle authenticates a gateway notification and applies it to the payment.
func (s *Service) Handle(ctx context.Context, raw []byte) domain.Result {
	provider := s.gateway.Name()

	var n domain.Notification
	if err := json.Unmarshal(raw, &n); err != nil || !n.Complete() {
		s.log.Warn("webhook rejected: malformed payload", zap.Int("bytes", len(raw)))
		return s.reject(ctx, provider, n.OrderID, domain.ReasonBadPayload)
	}
	ctx = obscontext.WithOrderID(ctx, n.OrderID)

	if !s.gateway.VerifySignature(n) {
		s.log.Warn("webhook rejected: signature mismatch",
			zap.String("order_id", n.OrderID),
			zap.String("transaction_status", n.TransactionStatus),
		)
		return s.reject(ctx, provider, n.OrderID, domain.ReasonInvalidSignature)
	}

	mapped, known := domain.MapGatewayStatus(n.TransactionStatus, n.FraudStatus)
	if !known {
		s.log.Warn("unrecognised transaction status, flagged for review",
			zap.String("order_id", n.OrderID),
			zap.String("transaction_status", n.TransactionStatus),
			zap.String("fraud_status", n.FraudStatus),
		)
	}

	release, err := s.guard.LockOrder(ctx, n.OrderID)
	if err != nil {
		// lock is best effort; the row lock inside the transaction still serializes writers
		s.log.Warn("order lock unavailable", zap.String("order_id", n.OrderID), zap.Error(err))
	}
	defer release()

	ctx, span := tracing.Start(ctx, "payment.webhook.apply",
		attribute.String("provider", provider),
		attribute.String("order_id", n.OrderID),
		attribute.String("status", string(mapped)),
	)
	var stale bool
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var applyErr error
		stale, applyErr = s.apply(ctx, tx, provider, n, mapped, known, raw)
		return applyErr
	})
	tracing.End(span, ignoreExpected(err))

	switch {
	case err == nil && stale:
		res := s.reject(ctx, provider, n.OrderID, domain.ReasonStaleStatus)
		res.Status = mapped
		return res
	case err == nil:
		s.obsMetrics.RecordWebhook(ctx, provider, string(mapped), "")
		return domain.Result{OK: true, OrderID: n.OrderID, Status: mapped}
	case errors.Is(err, errUnknownOrder):
		s.log.Warn("webhook for unknown order", zap.String("order_id", n.OrderID))
		return s.reject(ctx, provider, n.OrderID, domain.ReasonUnknownOrder)
	default:
		s.log.Error("webhook processing failed", zap.String("order_id", n.OrderID), zap.Error(err))
		return s.reject(ctx, provider, n.OrderID, domain.ReasonInternalError)
	}
}

// apply records the event and overwrites the payment. A stale delivery under the
// rank guard commits its skipped event and reports stale instead of failing the tx.
func (s *Service) apply(ctx context.Context, tx *gorm.DB, provider string, n domain.Notification, mapped domain.Status, known bool, raw []byte) (stale bool, err error) {
	payments := s.repo.WithTx(tx)

	current, err := payments.GetByOrderIDForUpdate(ctx, n.OrderID)
	if err != nil {
		return false, err
	}
	if current == nil {
		return false, errUnknownOrder
	}

	now := s.clock.Now()
	outcome := domain.EventOutcomeApplied
	if mapped.Regresses(current.Status) {
		s.log.Warn("status regression",
			zap.String("order_id", n.OrderID),
			zap.String("from", string(current.Status)),
			zap.String("to", string(mapped)),
		)
		if s.rankGuard() {
			stale = true
			outcome = domain.EventOutcomeSkipped
		}
	}

	inserted, err := payments.InsertEvent(ctx, &domain.EventRecord{
		ID:                s.genID.Generate(),
		OrderID:           n.OrderID,
		Provider:          provider,
		DedupKey:          dedupKey(raw),
		TransactionStatus: n.TransactionStatus,
		MappedStatus:      mapped,
		Outcome:           outcome,
		Payload:           datatypes.JSON(raw),
		ReceivedAt:        now,
	})
	if err != nil {
		return false, err
	}
	if !inserted {
		s.log.Debug("duplicate notification ignored", zap.String("order_id", n.OrderID))
		return false, nil
	}
	if stale {
		return true, nil
	}

	next := *current
	next.Status = mapped
	next.NeedsReview = !known || mapped == domain.StatusChallenge
	next.Method = overwrite(current.Method, n.PaymentType)
	next.TransactionID = overwrite(current.TransactionID, n.TransactionID)
	next.FraudStatus = overwrite(current.FraudStatus, n.FraudStatus)
	next.Metadata = withNotification(current.Metadata, n)
	next.UpdatedAt = now
	if mapped.IsSettled() && current.SettledAt == nil {
		next.SettledAt = &now
	}
	if _, err := payments.ApplyNotification(ctx, &next); err != nil {
		return false, err
	}

	return false, s.applyBilling(ctx, tx, current, &next, now)
}

// applyBilling runs the billing side effects of the first settlement and the first reversal.
func (s *Service) applyBilling(ctx context.Context, tx *gorm.DB, before, after *domain.Payment, now time.Time) error {
	firstSettlement := after.Status.IsSettled() && before.SettledAt == nil
	firstReversal := after.Status.IsReversal() && !before.Status.IsReversal() && before.SettledAt != nil
	if !firstSettlement && !firstReversal {
		return nil
	}
	if after.EmployerID == nil {
		s.log.Info("payment has no employer, billing untouched", zap.String("order_id", after.OrderID))
		return nil
	}

	in := billingdomain.Settlement{
		EmployerID: *after.EmployerID,
		PlanID:     after.PlanID,
		OrderID:    after.OrderID,
		At:         now,
	}
	if firstSettlement {
		return s.billingSvc.ApplySettlement(ctx, tx, in)
	}
	return s.billingSvc.ApplyReversal(ctx, tx, in)
}

func (s *Service) reject(ctx context.Context, provider, orderID, reason string) domain.Result {
	s.obsMetrics.RecordWebhook(ctx, provider, "", reason)
	return domain.Result{OK: false, OrderID: orderID, Reason: reason}
}

func (s *Service) rankGuard() bool {
	if s.billing == nil {
		return false
	}
	return s.billing.Get().Webhook.RankGuard
}

func dedupKey(raw []byte) string {
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

func overwrite(current *string, incoming string) *string {
	incoming = strings.TrimSpace(incoming)
	if incoming == "" {
		return current
	}
	return &incoming
}

func withNotification(existing datatypes.JSON, n domain.Notification) datatypes.JSON {
	meta := map[string]any{}
	if len(existing) > 0 {
		_ = json.Unmarshal(existing, &meta)
	}
	meta["last_notification"] = map[string]any{
		"transaction_status": n.TransactionStatus,
		"fraud_status":       n.FraudStatus,
		"status_code":        n.StatusCode,
		"status_message":     n.StatusMessage,
		"transaction_time":   n.TransactionTime,
		"gross_amount":       n.GrossAmount,
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return existing
	}
	return datatypes.JSON(raw)
}

func ignoreExpected(err error) error {
	if errors.Is(err, errUnknownOrder) {
		return nil
	}
	return err
}
