package domain

import "context"

// Reconciler applies gateway notifications to payments. Handle never returns
// an error; rejections are reported through Result.Reason.
type Reconciler interface {
	Handle(ctx context.Context, raw []byte) Result
}

type Result struct {
	OK      bool
	OrderID string
	Status  Status
	Reason  string
}

const (
	ReasonBadPayload       = "BAD_PAYLOAD"
	ReasonInvalidSignature = "INVALID_SIGNATURE"
	ReasonUnknownOrder     = "UNKNOWN_ORDER"
	ReasonStaleStatus      = "STALE_STATUS"
	ReasonInternalError    = "INTERNAL_ERROR"
)
