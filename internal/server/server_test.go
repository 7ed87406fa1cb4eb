package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/smallbiznis/hirehub/internal/config"
	employerdomain "github.com/smallbiznis/hirehub/internal/employer/domain"
	"github.com/smallbiznis/hirehub/internal/observability"
	obsmetrics "github.com/smallbiznis/hirehub/internal/observability/metrics"
	onboardingdomain "github.com/smallbiznis/hirehub/internal/onboarding/domain"
	paymentdomain "github.com/smallbiznis/hirehub/internal/payment/domain"
	plandomain "github.com/smallbiznis/hirehub/internal/plan/domain"
	"github.com/smallbiznis/hirehub/internal/ratelimit"
	"github.com/smallbiznis/hirehub/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePlanService struct {
	plandomain.Service
	plans []plandomain.PlanResponse
}

func (f *fakePlanService) List(context.Context) ([]plandomain.PlanResponse, error) {
	return f.plans, nil
}

type fakeOnboardingService struct {
	onboardingdomain.Service
	err         error
	lastProfile onboardingdomain.ProfileRequest
	lastID      string
}

func (f *fakeOnboardingService) CreateAccount(_ context.Context, req onboardingdomain.CreateAccountRequest) (*onboardingdomain.CreateAccountResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &onboardingdomain.CreateAccountResponse{EmployerID: "101", Slug: "acme"}, nil
}

func (f *fakeOnboardingService) UpsertProfile(_ context.Context, id string, req onboardingdomain.ProfileRequest) error {
	f.lastID = id
	f.lastProfile = req
	return f.err
}

func (f *fakeOnboardingService) ChoosePlan(_ context.Context, id string, req onboardingdomain.ChoosePlanRequest) (*onboardingdomain.ChoosePlanResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &onboardingdomain.ChoosePlanResponse{Mode: "needs_payment", PlanID: "7", BillingStatus: "none", Step: "JOB"}, nil
}

func (f *fakeOnboardingService) CreateDraftJob(_ context.Context, id string, req onboardingdomain.DraftJobRequest) (*onboardingdomain.DraftJobResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &onboardingdomain.DraftJobResponse{JobID: "55"}, nil
}

func (f *fakeOnboardingService) SubmitVerification(_ context.Context, id string, req onboardingdomain.VerificationRequest) (*onboardingdomain.VerificationResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &onboardingdomain.VerificationResponse{VerificationID: "77"}, nil
}

func (f *fakeOnboardingService) GetEmployer(_ context.Context, id string) (*onboardingdomain.EmployerView, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &onboardingdomain.EmployerView{ID: id, Slug: "acme", OnboardingStep: "JOB"}, nil
}

type fakePaymentService struct {
	paymentdomain.Service
	err     error
	receipt []byte
}

func (f *fakePaymentService) CreateTransaction(_ context.Context, req paymentdomain.CreateTransactionRequest) (*paymentdomain.CreateTransactionResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &paymentdomain.CreateTransactionResponse{
		Token:       "snap-token",
		RedirectURL: "https://app.sandbox.midtrans.com/snap/v4/redirection/snap-token",
		OrderID:     "plan-" + req.Plan + "-1770026400000",
	}, nil
}

func (f *fakePaymentService) GetByOrderID(_ context.Context, orderID string) (*paymentdomain.PaymentResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &paymentdomain.PaymentResponse{OrderID: orderID, Status: paymentdomain.StatusPending}, nil
}

func (f *fakePaymentService) RenderReceipt(_ context.Context, orderID string) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.receipt, nil
}

type fakeReconciler struct {
	calls  int
	result paymentdomain.Result
}

func (f *fakeReconciler) Handle(_ context.Context, raw []byte) paymentdomain.Result {
	f.calls++
	return f.result
}

type harness struct {
	engine     *gin.Engine
	onboarding *fakeOnboardingService
	payments   *fakePaymentService
	reconciler *fakeReconciler
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		onboarding: &fakeOnboardingService{},
		payments:   &fakePaymentService{receipt: []byte("%PDF-1.4 test")},
		reconciler: &fakeReconciler{},
	}
	engine := NewEngine(observability.Config{Environment: "test"}, obsmetrics.NewHTTPMetricsWith(prometheus.NewRegistry()))
	NewServer(ServerParams{
		Gin: engine,
		Cfg: config.Config{Environment: "test"},
		Log: zaptest.NewLogger(t),
		PlanSvc: &fakePlanService{plans: []plandomain.PlanResponse{
			{ID: "1", Slug: "pro-monthly", Amount: 299000, Currency: "IDR", Interval: "month"},
		}},
		OnboardingSvc: h.onboarding,
		PaymentSvc:    h.payments,
		Reconciler:    h.reconciler,
	})
	h.engine = engine
	return h
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		_ = json.NewEncoder(&buf).Encode(b)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorPayload {
	t.Helper()
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestListPlans(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/api/plans", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"slug":"pro-monthly"`)
}

func TestCreateEmployer(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/employers", map[string]string{
		"company_name": "PT Acme",
		"display_name": "Acme",
		"email":        "owner@acme.test",
		"password":     "correct-horse",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"employer_id":"101","slug":"acme"}`, rec.Body.String())
}

func TestCreateEmployerConflict(t *testing.T) {
	h := newHarness(t)
	h.onboarding.err = employerdomain.ErrEmailTaken

	rec := h.do(http.MethodPost, "/api/employers", map[string]string{"email": "owner@acme.test"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "conflict", decodeError(t, rec).Type)
}

func TestMalformedJSON(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/employers", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	assert.Equal(t, "validation_error", payload.Type)
	require.Len(t, payload.Errors, 1)
	assert.Equal(t, "request", payload.Errors[0].Field)
}

func TestValidationFieldsSurface(t *testing.T) {
	h := newHarness(t)
	h.onboarding.err = &validation.Error{Fields: []validation.FieldError{
		{Field: "email", Message: "must be a valid email"},
		{Field: "password", Message: "must be at least 8"},
	}}

	rec := h.do(http.MethodPost, "/api/employers", map[string]string{})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	payload := decodeError(t, rec)
	require.Len(t, payload.Errors, 2)
	assert.Equal(t, "email", payload.Errors[0].Field)
	assert.Equal(t, "password", payload.Errors[1].Field)
}

func TestUpsertProfile(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPut, "/api/employers/101/profile", map[string]string{"city": "Jakarta"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, "101", h.onboarding.lastID)
	assert.Equal(t, "Jakarta", h.onboarding.lastProfile.City)
}

func TestOnboardingStatusCodes(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodPost, "/api/employers/101/plan", map[string]string{"plan": "pro-monthly"})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"mode":"needs_payment"`)

	rec = h.do(http.MethodPost, "/api/employers/101/jobs", map[string]string{"title": "Driver"})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.JSONEq(t, `{"job_id":"55"}`, rec.Body.String())

	rec = h.do(http.MethodPost, "/api/employers/101/verification", map[string]any{"files": []any{}})
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = h.do(http.MethodGet, "/api/employers/101", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"onboarding_step":"JOB"`)
}

func TestErrorMapping(t *testing.T) {
	cases := map[string]struct {
		err    error
		status int
		kind   string
	}{
		"employer missing":  {employerdomain.ErrEmployerNotFound, http.StatusNotFound, "not_found"},
		"plan missing":      {plandomain.ErrPlanNotFound, http.StatusNotFound, "not_found"},
		"plan inactive":     {plandomain.ErrPlanUnavailable, http.StatusUnprocessableEntity, "unprocessable"},
		"free plan":         {paymentdomain.ErrInvalidOperation, http.StatusUnprocessableEntity, "unprocessable"},
		"negative amount":   {paymentdomain.ErrInvalidAmount, http.StatusUnprocessableEntity, "unprocessable"},
		"bad employer id":   {onboardingdomain.ErrInvalidEmployerID, http.StatusBadRequest, "validation_error"},
		"rate limited":      {fmt.Errorf("%w: retry after 10s", ratelimit.ErrRateLimited), http.StatusTooManyRequests, "rate_limited"},
		"gateway timeout":   {paymentdomain.ErrGatewayTimeout, http.StatusGatewayTimeout, "gateway_timeout"},
		"gateway rejection": {&paymentdomain.GatewayError{Provider: "midtrans", StatusCode: 400, Message: "order_id taken"}, http.StatusBadGateway, "gateway_error"},
		"unexpected":        {fmt.Errorf("boom"), http.StatusInternalServerError, "internal_error"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			h.payments.err = tc.err
			rec := h.do(http.MethodPost, "/api/payments/transactions", map[string]string{"plan": "pro-monthly"})
			assert.Equal(t, tc.status, rec.Code)
			assert.Equal(t, tc.kind, decodeError(t, rec).Type)
		})
	}

	status, payload := mapError(&paymentdomain.GatewayError{Provider: "midtrans", Message: "order_id taken"})
	assert.Equal(t, http.StatusBadGateway, status)
	assert.Equal(t, "order_id taken", payload.Message)
}

func TestCreateTransaction(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodPost, "/api/payments/transactions", map[string]string{"plan": "pro-monthly", "employer_id": "101"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp paymentdomain.CreateTransactionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "snap-token", resp.Token)
	assert.Equal(t, "plan-pro-monthly-1770026400000", resp.OrderID)
}

func TestGetPaymentAndReceipt(t *testing.T) {
	h := newHarness(t)

	rec := h.do(http.MethodGet, "/api/payments/plan-pro-1", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"order_id":"plan-pro-1"`)

	rec = h.do(http.MethodGet, "/api/payments/plan-pro-1/receipt", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "receipt-plan-pro-1.pdf")
	assert.Equal(t, "%PDF-1.4 test", rec.Body.String())

	h.payments.err = paymentdomain.ErrPaymentNotSettled
	rec = h.do(http.MethodGet, "/api/payments/plan-pro-1/receipt", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestWebhookAlwaysAcknowledges(t *testing.T) {
	results := []paymentdomain.Result{
		{OK: true, OrderID: "plan-pro-1", Status: paymentdomain.StatusSettlement},
		{OK: false, Reason: paymentdomain.ReasonBadPayload},
		{OK: false, OrderID: "plan-pro-1", Reason: paymentdomain.ReasonInvalidSignature},
		{OK: false, OrderID: "missing", Reason: paymentdomain.ReasonUnknownOrder},
		{OK: false, OrderID: "plan-pro-1", Reason: paymentdomain.ReasonInternalError},
	}
	for _, res := range results {
		h := newHarness(t)
		h.reconciler.result = res
		rec := h.do(http.MethodPost, "/api/payments/webhooks/midtrans", `{"order_id":"plan-pro-1"}`)
		assert.Equal(t, http.StatusOK, rec.Code, res.Reason)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
		assert.Equal(t, 1, h.reconciler.calls)
	}
}

func TestUnknownRoute(t *testing.T) {
	h := newHarness(t)
	rec := h.do(http.MethodGet, "/api/nope", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
