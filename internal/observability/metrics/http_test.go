package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGinMiddlewareCountsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m := NewHTTPMetricsWith(reg)

	r := gin.New()
	r.Use(GinMiddleware(m))
	r.GET("/api/plans", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/plans", nil))
	}

	assert.Equal(t, float64(3), testutil.ToFloat64(m.requests.WithLabelValues("/api/plans", "GET", "200")))
}

func TestRegisterTwiceReusesCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	first := NewSweeperMetricsWith(reg)
	second := NewSweeperMetricsWith(reg)

	first.ObserveRun(SweeperResultOK, time.Millisecond)
	second.AddExpired("trial", 2)

	assert.Equal(t, float64(1), testutil.ToFloat64(second.runs.WithLabelValues(SweeperResultOK)))
	assert.Equal(t, float64(2), testutil.ToFloat64(first.expired.WithLabelValues("trial")))
}
