package logger

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	obscontext "github.com/smallbiznis/hirehub/internal/observability/context"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const HeaderRequestID = "X-Request-Id"

// MiddlewareConfig controls request logging.
type MiddlewareConfig struct {
	Debug bool
	// ErrorClassifier maps the last handler error to (type, code) log fields.
	ErrorClassifier func(err error) (string, string)
}

// GinMiddleware assigns a request id, stores the employer and order ids from
// the route on the request context and writes one access log line per request.
func GinMiddleware(cfg MiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Request = c.Request.WithContext(correlate(c))

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		status := c.Writer.Status()
		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Int64("duration_ms", time.Since(start).Milliseconds()),
			zap.Int64("bytes_in", max(c.Request.ContentLength, 0)),
			zap.Int("bytes_out", max(c.Writer.Size(), 0)),
		}
		if reason := c.GetString("webhook_reason"); reason != "" {
			fields = append(fields, zap.String("webhook_reason", reason))
		}

		var errType string
		if last := c.Errors.Last(); last != nil {
			var errCode string
			if cfg.ErrorClassifier != nil {
				errType, errCode = cfg.ErrorClassifier(last.Err)
			}
			fields = append(fields, zap.String("error_type", errType), zap.String("error_code", errCode))
			if cfg.Debug {
				fields = append(fields, zap.String("error", last.Err.Error()))
			}
		}

		if ce := FromContext(c.Request.Context()).Check(accessLevel(route, status, errType), "http_request"); ce != nil {
			ce.Write(fields...)
		}
	}
}

func correlate(c *gin.Context) context.Context {
	requestID := strings.TrimSpace(c.GetHeader(HeaderRequestID))
	if requestID == "" {
		requestID = ulid.Make().String()
	}
	c.Set("request_id", requestID)
	c.Header(HeaderRequestID, requestID)

	next := obscontext.WithRequestID(c.Request.Context(), requestID)
	if id := c.Param("id"); id != "" && strings.HasPrefix(c.FullPath(), "/api/employers/") {
		next = obscontext.WithEmployerID(next, id)
	}
	if orderID := c.Param("orderId"); orderID != "" {
		next = obscontext.WithOrderID(next, orderID)
	}
	return next
}

// accessLevel keeps probes and client validation noise out of info logs.
func accessLevel(route string, status int, errType string) zapcore.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return zapcore.ErrorLevel
	case route == "/health" || route == "/metrics":
		return zapcore.DebugLevel
	case status >= http.StatusBadRequest && errType == "validation_error":
		return zapcore.DebugLevel
	}
	return zapcore.InfoLevel
}
