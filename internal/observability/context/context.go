package context

import "context"

type ctxKey string

const (
	requestIDKey  ctxKey = "request_id"
	employerIDKey ctxKey = "employer_id"
	orderIDKey    ctxKey = "order_id"
)

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	return stringValue(ctx, requestIDKey)
}

func WithEmployerID(ctx context.Context, employerID string) context.Context {
	return context.WithValue(ctx, employerIDKey, employerID)
}

func EmployerIDFromContext(ctx context.Context) string {
	return stringValue(ctx, employerIDKey)
}

func WithOrderID(ctx context.Context, orderID string) context.Context {
	return context.WithValue(ctx, orderIDKey, orderID)
}

func OrderIDFromContext(ctx context.Context) string {
	return stringValue(ctx, orderIDKey)
}

func stringValue(ctx context.Context, key ctxKey) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
