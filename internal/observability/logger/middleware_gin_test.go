package logger

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/hirehub/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestGinMiddlewareLogsCorrelatedRequest(t *testing.T) {
	gin.SetMode(gin.TestMode)
	core, logs := observer.New(zapcore.DebugLevel)
	restore := zap.ReplaceGlobals(zap.New(core))
	defer restore()

	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{
		ErrorClassifier: func(error) (string, string) { return "domain_error", "PLAN_UNAVAILABLE" },
	}))
	var seenEmployer string
	r.POST("/api/employers/:id/plan", func(c *gin.Context) {
		seenEmployer = obscontext.EmployerIDFromContext(c.Request.Context())
		_ = c.Error(errors.New("plan_unavailable"))
		c.Status(http.StatusUnprocessableEntity)
	})

	req := httptest.NewRequest(http.MethodPost, "/api/employers/42/plan", nil)
	req.Header.Set(HeaderRequestID, "req-abc")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "42", seenEmployer)
	assert.Equal(t, "req-abc", w.Header().Get(HeaderRequestID))

	entries := logs.FilterMessage("http_request").AllUntimed()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "/api/employers/:id/plan", fields["route"])
	assert.Equal(t, int64(422), fields["status"])
	assert.Equal(t, "PLAN_UNAVAILABLE", fields["error_code"])
	assert.Equal(t, "req-abc", fields["request_id"])
	assert.Equal(t, "42", fields["employer_id"])
}

func TestGinMiddlewareGeneratesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(MiddlewareConfig{}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Len(t, w.Header().Get(HeaderRequestID), 26)
}

func TestAccessLevel(t *testing.T) {
	assert.Equal(t, zapcore.ErrorLevel, accessLevel("/api/plans", 502, ""))
	assert.Equal(t, zapcore.DebugLevel, accessLevel("/health", 200, ""))
	assert.Equal(t, zapcore.DebugLevel, accessLevel("/api/employers", 400, "validation_error"))
	assert.Equal(t, zapcore.InfoLevel, accessLevel("/api/employers", 409, "conflict"))
}
