package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	billingdomain "github.com/smallbiznis/hirehub/internal/billing/domain"
	employerdomain "github.com/smallbiznis/hirehub/internal/employer/domain"
	onboardingdomain "github.com/smallbiznis/hirehub/internal/onboarding/domain"
	paymentdomain "github.com/smallbiznis/hirehub/internal/payment/domain"
	plandomain "github.com/smallbiznis/hirehub/internal/plan/domain"
	"github.com/smallbiznis/hirehub/internal/ratelimit"
	"github.com/smallbiznis/hirehub/pkg/db"
	"github.com/smallbiznis/hirehub/pkg/validation"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrConflict       = errors.New("conflict")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	if fields := validation.Fields(err); len(fields) > 0 {
		out := make([]ValidationError, 0, len(fields))
		for _, f := range fields {
			out = append(out, ValidationError{Field: f.Field, Code: "invalid", Message: f.Message})
		}
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  out,
		}
	}

	if code, ok := invalidRequestCode(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  []ValidationError{{Field: "request", Code: code, Message: "invalid value"}},
		}
	}

	var gatewayErr *paymentdomain.GatewayError
	switch {
	case errors.Is(err, ErrConflict),
		errors.Is(err, employerdomain.ErrEmailTaken),
		db.IsDuplicateKeyErr(err):
		return http.StatusConflict, errorPayload{
			Type:    "conflict",
			Message: conflictMessage(err),
		}
	case isNotFoundError(err):
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	case isUnprocessable(err):
		return http.StatusUnprocessableEntity, errorPayload{
			Type:    "unprocessable",
			Message: err.Error(),
		}
	case errors.Is(err, ratelimit.ErrRateLimited):
		return http.StatusTooManyRequests, errorPayload{
			Type:    "rate_limited",
			Message: "too many requests",
		}
	case errors.Is(err, paymentdomain.ErrGatewayTimeout):
		return http.StatusGatewayTimeout, errorPayload{
			Type:    "gateway_timeout",
			Message: "payment gateway timed out",
		}
	case errors.As(err, &gatewayErr):
		return http.StatusBadGateway, errorPayload{
			Type:    "gateway_error",
			Message: gatewayErr.Message,
		}
	default:
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}
}

// classifyErrorForLog feeds the request logger with the same type the client sees.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	if status >= http.StatusInternalServerError {
		return payload.Type, http.StatusText(status)
	}
	return payload.Type, err.Error()
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func invalidRequestCode(err error) (string, bool) {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, paymentdomain.ErrInvalidRequest):
		return "invalid_request", true
	case errors.Is(err, onboardingdomain.ErrInvalidEmployerID):
		return "invalid_employer_id", true
	case errors.Is(err, plandomain.ErrInvalidPlan):
		return "invalid_plan", true
	default:
		return "", false
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, employerdomain.ErrEmployerNotFound),
		errors.Is(err, plandomain.ErrPlanNotFound),
		errors.Is(err, paymentdomain.ErrPaymentNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}

func isUnprocessable(err error) bool {
	switch {
	case errors.Is(err, plandomain.ErrPlanUnavailable),
		errors.Is(err, paymentdomain.ErrInvalidOperation),
		errors.Is(err, paymentdomain.ErrInvalidAmount),
		errors.Is(err, paymentdomain.ErrPaymentNotSettled),
		errors.Is(err, billingdomain.ErrMissingEmployer):
		return true
	default:
		return false
	}
}

func conflictMessage(err error) string {
	if errors.Is(err, employerdomain.ErrEmailTaken) {
		return "email already registered"
	}
	return "conflict"
}
