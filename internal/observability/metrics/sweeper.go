package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweeperMetrics captures health signals of the billing expiry job.
type SweeperMetrics struct {
	runs     *prometheus.CounterVec
	duration prometheus.Histogram
	expired  *prometheus.CounterVec
}

const (
	SweeperResultOK    = "ok"
	SweeperResultError = "error"
)

func NewSweeperMetrics() *SweeperMetrics {
	return NewSweeperMetricsWith(prometheus.DefaultRegisterer)
}

func NewSweeperMetricsWith(reg prometheus.Registerer) *SweeperMetrics {
	m := &SweeperMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hirehub",
			Subsystem: "billing_sweeper",
			Name:      "runs_total",
			Help:      "Billing sweeper runs by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "hirehub",
			Subsystem: "billing_sweeper",
			Name:      "run_duration_seconds",
			Help:      "Billing sweeper run duration.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}),
		expired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hirehub",
			Subsystem: "billing_sweeper",
			Name:      "expired_total",
			Help:      "Employers moved to past_due by previous status.",
		}, []string{"from"}),
	}
	m.runs = registerOrExisting(reg, m.runs).(*prometheus.CounterVec)
	m.duration = registerOrExisting(reg, m.duration).(prometheus.Histogram)
	m.expired = registerOrExisting(reg, m.expired).(*prometheus.CounterVec)
	return m
}

func (m *SweeperMetrics) ObserveRun(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(result).Inc()
	m.duration.Observe(d.Seconds())
}

func (m *SweeperMetrics) AddExpired(from string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.expired.WithLabelValues(from).Add(float64(n))
}
