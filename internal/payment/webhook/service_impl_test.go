package webhook_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	billingdomain "github.com/smallbiznis/hirehub/internal/billing/domain"
	billingservice "github.com/smallbiznis/hirehub/internal/billing/service"
	"github.com/smallbiznis/hirehub/internal/clock"
	"github.com/smallbiznis/hirehub/internal/config"
	employerdomain "github.com/smallbiznis/hirehub/internal/employer/domain"
	employerrepo "github.com/smallbiznis/hirehub/internal/employer/repository"
	"github.com/smallbiznis/hirehub/internal/migration"
	"github.com/smallbiznis/hirehub/internal/payment/adapters/midtrans"
	"github.com/smallbiznis/hirehub/internal/payment/domain"
	paymentrepo "github.com/smallbiznis/hirehub/internal/payment/repository"
	"github.com/smallbiznis/hirehub/internal/payment/webhook"
	plandomain "github.com/smallbiznis/hirehub/internal/plan/domain"
	planrepo "github.com/smallbiznis/hirehub/internal/plan/repository"
	"github.com/smallbiznis/hirehub/internal/ratelimit"
	subscriptiondomain "github.com/smallbiznis/hirehub/internal/subscription/domain"
	subscriptionrepo "github.com/smallbiznis/hirehub/internal/subscription/repository"
	"github.com/smallbiznis/hirehub/pkg/db"
	"github.com/smallbiznis/hirehub/pkg/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

const serverKey = "SB-Mid-server-test"

var base = time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	db        *gorm.DB
	node      *snowflake.Node
	clock     *clock.FakeClock
	employers employerdomain.Repository
	payments  domain.Repository
	subs      subscriptiondomain.Repository
	holder    *config.BillingConfigHolder
	guard     *ratelimit.PaymentGuard
	svc       domain.Reconciler
	plan      plandomain.Plan
}

func newFixture(t *testing.T, guard *ratelimit.PaymentGuard) *fixture {
	t.Helper()

	conn := db.NewTest(t, migration.Models()...)
	node, err := snowflake.NewNode(3)
	require.NoError(t, err)
	fc := clock.NewFakeClock(base)
	log := zaptest.NewLogger(t)

	gateway, err := midtrans.NewClient(midtrans.Config{ServerKey: serverKey}, nil)
	require.NoError(t, err)

	employers := employerrepo.NewRepository(conn)
	subs := subscriptionrepo.Provide(conn)
	payments := paymentrepo.Provide(conn)
	billing := billingservice.NewService(billingservice.Params{
		DB:               conn,
		Log:              log,
		GenID:            node,
		Clock:            fc,
		EmployerRepo:     employers,
		PlanRepo:         planrepo.NewRepository(conn),
		SubscriptionRepo: subs,
	})
	holder := config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())

	svc := webhook.NewService(webhook.Params{
		DB:         conn,
		Log:        log,
		GenID:      node,
		Clock:      fc,
		Repo:       payments,
		Gateway:    gateway,
		BillingSvc: billing,
		Billing:    holder,
		Guard:      guard,
	})

	plan := plandomain.Plan{
		ID:        node.Generate(),
		Slug:      "pro-monthly",
		Name:      "Pro Monthly",
		Amount:    money.Amount(150000),
		Currency:  "IDR",
		Interval:  plandomain.IntervalMonth,
		Active:    true,
		CreatedAt: base,
		UpdatedAt: base,
	}
	require.NoError(t, conn.Create(&plan).Error)

	return &fixture{
		db:        conn,
		node:      node,
		clock:     fc,
		employers: employers,
		payments:  payments,
		subs:      subs,
		holder:    holder,
		guard:     guard,
		svc:       svc,
		plan:      plan,
	}
}

func (f *fixture) employer(t *testing.T) snowflake.ID {
	t.Helper()
	id := f.node.Generate()
	require.NoError(t, f.employers.Create(context.Background(), employerdomain.Employer{
		ID:             id,
		Slug:           "acme-" + id.String(),
		DisplayName:    "Acme",
		LegalName:      "PT Acme",
		OnboardingStep: employerdomain.StepJob,
		BillingStatus:  billingdomain.StatusNone,
		CreatedAt:      base,
		UpdatedAt:      base,
	}))
	return id
}

func (f *fixture) pending(t *testing.T, orderID string, employerID *snowflake.ID) {
	t.Helper()
	require.NoError(t, f.payments.Insert(context.Background(), &domain.Payment{
		ID:          f.node.Generate(),
		OrderID:     orderID,
		EmployerID:  employerID,
		PlanID:      f.plan.ID,
		Provider:    midtrans.ProviderName,
		Currency:    "IDR",
		GrossAmount: f.plan.Amount,
		Status:      domain.StatusPending,
		Token:       "tok",
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v4/redirection/tok",
		Metadata:    []byte(`{"plan_slug":"pro-monthly"}`),
		CreatedAt:   base,
		UpdatedAt:   base,
	}))
}

func (f *fixture) payment(t *testing.T, orderID string) *domain.Payment {
	t.Helper()
	p, err := f.payments.GetByOrderID(context.Background(), orderID)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func (f *fixture) events(t *testing.T, orderID string) []domain.EventRecord {
	t.Helper()
	events, err := f.payments.ListEvents(context.Background(), orderID)
	require.NoError(t, err)
	return events
}

type note struct {
	status string
	fraud  string
	method string
	txID   string
	amount string
	code   string
	sigKey string
	tamper bool
	txTime string
}

func notification(t *testing.T, orderID string, n note) []byte {
	t.Helper()
	if n.amount == "" {
		n.amount = "150000.00"
	}
	if n.code == "" {
		n.code = "200"
	}
	key := n.sigKey
	if key == "" {
		key = serverKey
	}
	body := map[string]string{
		"order_id":           orderID,
		"status_code":        n.code,
		"gross_amount":       n.amount,
		"transaction_status": n.status,
		"signature_key":      midtrans.Signature(orderID, n.code, n.amount, key),
	}
	if n.fraud != "" {
		body["fraud_status"] = n.fraud
	}
	if n.method != "" {
		body["payment_type"] = n.method
	}
	if n.txID != "" {
		body["transaction_id"] = n.txID
	}
	if n.txTime != "" {
		body["transaction_time"] = n.txTime
	}
	if n.tamper {
		body["gross_amount"] = "1.00"
	}
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	return raw
}

func TestSettlementActivatesEmployer(t *testing.T) {
	f := newFixture(t, nil)
	employerID := f.employer(t)
	f.pending(t, "plan-pro-monthly-1", &employerID)

	res := f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", note{
		status: "settlement",
		method: "bank_transfer",
		txID:   "tx-1",
	}))
	require.True(t, res.OK, res.Reason)
	assert.Equal(t, domain.StatusSettlement, res.Status)
	assert.Equal(t, "plan-pro-monthly-1", res.OrderID)

	p := f.payment(t, "plan-pro-monthly-1")
	assert.Equal(t, domain.StatusSettlement, p.Status)
	require.NotNil(t, p.Method)
	assert.Equal(t, "bank_transfer", *p.Method)
	require.NotNil(t, p.TransactionID)
	assert.Equal(t, "tx-1", *p.TransactionID)
	require.NotNil(t, p.SettledAt)
	assert.Contains(t, string(p.Metadata), "last_notification")
	assert.Contains(t, string(p.Metadata), "plan_slug")

	e, err := f.employers.GetByID(context.Background(), employerID)
	require.NoError(t, err)
	assert.Equal(t, billingdomain.StatusActive, e.BillingStatus)
	require.NotNil(t, e.PremiumUntil)
	assert.True(t, e.PremiumUntil.Equal(time.Date(2026, time.April, 1, 8, 0, 0, 0, time.UTC)))
	require.NotNil(t, e.CurrentPlanID)
	assert.Equal(t, f.plan.ID, *e.CurrentPlanID)

	events := f.events(t, "plan-pro-monthly-1")
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventOutcomeApplied, events[0].Outcome)
	assert.Equal(t, domain.StatusSettlement, events[0].MappedStatus)
}

func TestRejectsMalformedPayload(t *testing.T) {
	f := newFixture(t, nil)
	f.pending(t, "plan-pro-monthly-1", nil)

	for _, raw := range [][]byte{
		[]byte(`not json`),
		[]byte(`{"order_id":"plan-pro-monthly-1","transaction_status":"settlement"}`),
		[]byte(`{"order_id":"plan-pro-monthly-1","status_code":200,"gross_amount":"150000.00","signature_key":"x","transaction_status":"settlement"}`),
	} {
		res := f.svc.Handle(context.Background(), raw)
		assert.False(t, res.OK)
		assert.Equal(t, domain.ReasonBadPayload, res.Reason, string(raw))
	}
	assert.Equal(t, domain.StatusPending, f.payment(t, "plan-pro-monthly-1").Status)
}

func TestRejectsInvalidSignatureWithoutSideEffects(t *testing.T) {
	f := newFixture(t, nil)
	employerID := f.employer(t)
	f.pending(t, "plan-pro-monthly-1", &employerID)

	cases := map[string]note{
		"wrong key":       {status: "settlement", sigKey: "another-key"},
		"tampered amount": {status: "settlement", tamper: true},
	}
	for name, n := range cases {
		t.Run(name, func(t *testing.T) {
			res := f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", n))
			assert.False(t, res.OK)
			assert.Equal(t, domain.ReasonInvalidSignature, res.Reason)
		})
	}

	assert.Equal(t, domain.StatusPending, f.payment(t, "plan-pro-monthly-1").Status)
	assert.Empty(t, f.events(t, "plan-pro-monthly-1"))
	e, err := f.employers.GetByID(context.Background(), employerID)
	require.NoError(t, err)
	assert.Equal(t, billingdomain.StatusNone, e.BillingStatus)
}

func TestUnknownOrder(t *testing.T) {
	f := newFixture(t, nil)

	res := f.svc.Handle(context.Background(), notification(t, "plan-missing-1", note{status: "settlement"}))
	assert.False(t, res.OK)
	assert.Equal(t, domain.ReasonUnknownOrder, res.Reason)
	assert.Empty(t, f.events(t, "plan-missing-1"))
}

func TestDuplicateDeliveryIsIdempotent(t *testing.T) {
	f := newFixture(t, nil)
	employerID := f.employer(t)
	f.pending(t, "plan-pro-monthly-1", &employerID)

	raw := notification(t, "plan-pro-monthly-1", note{status: "settlement", method: "qris"})
	first := f.svc.Handle(context.Background(), raw)
	require.True(t, first.OK)
	afterFirst := f.payment(t, "plan-pro-monthly-1")
	employerAfterFirst, err := f.employers.GetByID(context.Background(), employerID)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	second := f.svc.Handle(context.Background(), raw)
	require.True(t, second.OK)
	assert.Equal(t, first.Status, second.Status)

	afterSecond := f.payment(t, "plan-pro-monthly-1")
	assert.Equal(t, afterFirst.Status, afterSecond.Status)
	assert.True(t, afterFirst.SettledAt.Equal(*afterSecond.SettledAt))

	employerAfterSecond, err := f.employers.GetByID(context.Background(), employerID)
	require.NoError(t, err)
	assert.True(t, employerAfterFirst.PremiumUntil.Equal(*employerAfterSecond.PremiumUntil))

	assert.Len(t, f.events(t, "plan-pro-monthly-1"), 1)
	subs, err := f.subs.ListByEmployer(context.Background(), employerID)
	require.NoError(t, err)
	assert.Len(t, subs, 1)
}

func TestCaptureResolvedByFraudStatus(t *testing.T) {
	cases := []struct {
		fraud       string
		want        domain.Status
		needsReview bool
	}{
		{"accept", domain.StatusSettlement, false},
		{"challenge", domain.StatusChallenge, true},
		{"deny", domain.StatusRejected, false},
	}
	for _, tc := range cases {
		t.Run(tc.fraud, func(t *testing.T) {
			f := newFixture(t, nil)
			f.pending(t, "plan-pro-monthly-1", nil)

			res := f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", note{
				status: "capture",
				fraud:  tc.fraud,
				method: "credit_card",
			}))
			require.True(t, res.OK, res.Reason)
			assert.Equal(t, tc.want, res.Status)

			p := f.payment(t, "plan-pro-monthly-1")
			assert.Equal(t, tc.want, p.Status)
			assert.Equal(t, tc.needsReview, p.NeedsReview)
			require.NotNil(t, p.FraudStatus)
			assert.Equal(t, tc.fraud, *p.FraudStatus)
		})
	}
}

func TestUnknownStatusPassesThroughForReview(t *testing.T) {
	f := newFixture(t, nil)
	f.pending(t, "plan-pro-monthly-1", nil)

	res := f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", note{status: "partial_refund"}))
	require.True(t, res.OK, res.Reason)

	p := f.payment(t, "plan-pro-monthly-1")
	assert.Equal(t, domain.Status("partial_refund"), p.Status)
	assert.True(t, p.NeedsReview)
}

func TestEmptyStatusPassesThroughForReview(t *testing.T) {
	f := newFixture(t, nil)
	f.pending(t, "plan-pro-monthly-1", nil)

	res := f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", note{status: ""}))
	require.True(t, res.OK, res.Reason)

	p := f.payment(t, "plan-pro-monthly-1")
	assert.Equal(t, domain.Status(""), p.Status)
	assert.True(t, p.NeedsReview)
	assert.Len(t, f.events(t, "plan-pro-monthly-1"), 1)
}

func TestSignatureCoversOrderIDAsSent(t *testing.T) {
	f := newFixture(t, nil)
	f.pending(t, "plan-pro-monthly-1", nil)

	// signed over the padded id: authentic, but no such order
	res := f.svc.Handle(context.Background(), notification(t, " plan-pro-monthly-1 ", note{status: "settlement"}))
	assert.False(t, res.OK)
	assert.Equal(t, domain.ReasonUnknownOrder, res.Reason)

	// signed over the bare id but sent padded: the digest no longer matches
	raw, err := json.Marshal(map[string]string{
		"order_id":           " plan-pro-monthly-1 ",
		"status_code":        "200",
		"gross_amount":       "150000.00",
		"transaction_status": "settlement",
		"signature_key":      midtrans.Signature("plan-pro-monthly-1", "200", "150000.00", serverKey),
	})
	require.NoError(t, err)
	res = f.svc.Handle(context.Background(), raw)
	assert.False(t, res.OK)
	assert.Equal(t, domain.ReasonInvalidSignature, res.Reason)
	assert.Equal(t, domain.StatusPending, f.payment(t, "plan-pro-monthly-1").Status)
}

func TestRegressionOverwritesWhenGuardOff(t *testing.T) {
	f := newFixture(t, nil)
	employerID := f.employer(t)
	f.pending(t, "plan-pro-monthly-1", &employerID)

	require.True(t, f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", note{status: "settlement"})).OK)
	res := f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", note{status: "pending", code: "201"}))
	require.True(t, res.OK, res.Reason)

	p := f.payment(t, "plan-pro-monthly-1")
	assert.Equal(t, domain.StatusPending, p.Status)
	assert.NotNil(t, p.SettledAt)

	// the late settlement redelivered after the regression does not extend billing again
	e, err := f.employers.GetByID(context.Background(), employerID)
	require.NoError(t, err)
	until := *e.PremiumUntil
	require.True(t, f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", note{status: "settlement", txID: "tx-again"})).OK)
	e, err = f.employers.GetByID(context.Background(), employerID)
	require.NoError(t, err)
	assert.True(t, until.Equal(*e.PremiumUntil))
}

func TestRegressionSkippedWhenGuardOn(t *testing.T) {
	f := newFixture(t, nil)
	cfg := f.holder.Get()
	cfg.Webhook.RankGuard = true
	f.holder.Set(cfg)
	f.pending(t, "plan-pro-monthly-1", nil)

	require.True(t, f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", note{status: "settlement"})).OK)
	res := f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", note{status: "pending", code: "201"}))
	assert.False(t, res.OK)
	assert.Equal(t, domain.ReasonStaleStatus, res.Reason)
	assert.Equal(t, domain.StatusPending, res.Status)

	assert.Equal(t, domain.StatusSettlement, f.payment(t, "plan-pro-monthly-1").Status)

	events := f.events(t, "plan-pro-monthly-1")
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventOutcomeApplied, events[0].Outcome)
	assert.Equal(t, domain.EventOutcomeSkipped, events[1].Outcome)
	assert.Equal(t, domain.StatusPending, events[1].MappedStatus)

	// the skipped delivery is remembered, so a retry of it is a plain duplicate
	res = f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", note{status: "pending", code: "201"}))
	assert.True(t, res.OK, res.Reason)
	assert.Len(t, f.events(t, "plan-pro-monthly-1"), 2)
	assert.Equal(t, domain.StatusSettlement, f.payment(t, "plan-pro-monthly-1").Status)
}

func TestRefundCancelsBilling(t *testing.T) {
	f := newFixture(t, nil)
	employerID := f.employer(t)
	f.pending(t, "plan-pro-monthly-1", &employerID)

	require.True(t, f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", note{status: "settlement"})).OK)
	f.clock.Advance(48 * time.Hour)
	res := f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", note{status: "refund"}))
	require.True(t, res.OK, res.Reason)
	assert.Equal(t, domain.StatusRefund, res.Status)

	e, err := f.employers.GetByID(context.Background(), employerID)
	require.NoError(t, err)
	assert.Equal(t, billingdomain.StatusCanceled, e.BillingStatus)

	sub, err := f.subs.FindByOrderID(context.Background(), "plan-pro-monthly-1")
	require.NoError(t, err)
	require.NotNil(t, sub)
	assert.Equal(t, subscriptiondomain.SubscriptionStatusCanceled, sub.Status)
}

func TestRefundWithoutSettlementLeavesBilling(t *testing.T) {
	f := newFixture(t, nil)
	employerID := f.employer(t)
	f.pending(t, "plan-pro-monthly-1", &employerID)

	require.True(t, f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", note{status: "refund"})).OK)

	e, err := f.employers.GetByID(context.Background(), employerID)
	require.NoError(t, err)
	assert.Equal(t, billingdomain.StatusNone, e.BillingStatus)
}

func TestSettlementWithoutEmployer(t *testing.T) {
	f := newFixture(t, nil)
	f.pending(t, "plan-pro-monthly-1", nil)

	res := f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", note{status: "settlement"}))
	require.True(t, res.OK, res.Reason)
	assert.Equal(t, domain.StatusSettlement, f.payment(t, "plan-pro-monthly-1").Status)
}

func TestHandleWithOrderLock(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	guard := ratelimit.NewPaymentGuard(config.Config{Redis: config.RedisConfig{
		Enabled: true,
		LockTTL: time.Second,
	}}, client)

	f := newFixture(t, guard)
	f.pending(t, "plan-pro-monthly-1", nil)

	res := f.svc.Handle(context.Background(), notification(t, "plan-pro-monthly-1", note{status: "expire", code: "407"}))
	require.True(t, res.OK, res.Reason)
	assert.Equal(t, domain.StatusExpire, f.payment(t, "plan-pro-monthly-1").Status)

	// the lock is released once handling returns
	assert.Empty(t, mr.Keys())
}
