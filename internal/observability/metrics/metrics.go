package metrics

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	planDecisions       = "hirehub_plan_decisions_total"
	transactionsCreated = "hirehub_payment_transactions_total"
	gatewayFailures     = "hirehub_gateway_failures_total"
	webhookOutcomes     = "hirehub_webhook_notifications_total"
	billingTransitions  = "hirehub_billing_transitions_total"
)

var counterDescriptions = map[string]string{
	planDecisions:       "Plan choices by decision mode.",
	transactionsCreated: "Gateway transactions persisted as pending.",
	gatewayFailures:     "Failed gateway calls by reason.",
	webhookOutcomes:     "Payment notifications by outcome.",
	billingTransitions:  "Employer billing status changes.",
}

// Metrics holds the billing and payment instruments. A nil *Metrics records nothing.
type Metrics struct {
	counters       map[string]metric.Int64Counter
	gatewayLatency metric.Float64Histogram
}

func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "hirehub"
	}
	meter := provider.Meter(name)

	m := &Metrics{counters: make(map[string]metric.Int64Counter, len(counterDescriptions))}
	for counter, desc := range counterDescriptions {
		c, err := meter.Int64Counter(counter, metric.WithDescription(desc))
		if err != nil {
			return nil, err
		}
		m.counters[counter] = c
	}

	latency, err := meter.Float64Histogram("hirehub_gateway_request_seconds",
		metric.WithUnit("s"),
		metric.WithDescription("Gateway round trip duration."),
	)
	if err != nil {
		return nil, err
	}
	m.gatewayLatency = latency
	return m, nil
}

func (m *Metrics) inc(ctx context.Context, counter string, labels ...string) {
	if m == nil {
		return
	}
	m.counters[counter].Add(ctx, 1, metric.WithAttributes(pairs(labels)...))
}

func (m *Metrics) RecordPlanDecision(ctx context.Context, mode string) {
	m.inc(ctx, planDecisions, "mode", mode)
}

func (m *Metrics) RecordTransactionCreated(ctx context.Context, provider, planSlug string) {
	m.inc(ctx, transactionsCreated, "provider", provider, "plan", planSlug)
}

func (m *Metrics) RecordGatewayFailure(ctx context.Context, provider, reason string) {
	m.inc(ctx, gatewayFailures, "provider", provider, "reason", reason)
}

// RecordWebhook counts notifications by outcome. Accepted notifications carry the mapped status.
func (m *Metrics) RecordWebhook(ctx context.Context, provider, status, reason string) {
	m.inc(ctx, webhookOutcomes, "provider", provider, "status", status, "reason", reason)
}

func (m *Metrics) RecordBillingTransition(ctx context.Context, from, to string) {
	m.inc(ctx, billingTransitions, "from", from, "to", to)
}

func (m *Metrics) ObserveGatewayLatency(ctx context.Context, provider string, d time.Duration) {
	if m == nil {
		return
	}
	m.gatewayLatency.Record(ctx, d.Seconds(), metric.WithAttributes(pairs([]string{"provider", provider})...))
}

// pairs turns alternating key/value strings into filtered attributes.
func pairs(kv []string) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		attrs = append(attrs, attribute.String(kv[i], strings.TrimSpace(kv[i+1])))
	}
	return FilterAttributes(attrs...)
}

var allowedLabelKeys = map[attribute.Key]bool{
	"mode": true, "plan": true, "provider": true, "status": true,
	"reason": true, "from": true, "to": true,
}

// FilterAttributes keeps only low-cardinality labels. Employer and order ids never become labels.
func FilterAttributes(attrs ...attribute.KeyValue) []attribute.KeyValue {
	filtered := attrs[:0:0]
	for _, attr := range attrs {
		if allowedLabelKeys[attr.Key] {
			filtered = append(filtered, attr)
		}
	}
	return filtered
}
