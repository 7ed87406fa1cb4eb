// Package domain holds the billing vocabulary shared by onboarding and payments.
package domain

// Status is the employer-level billing state.
type Status string

const (
	StatusNone     Status = "none"
	StatusTrial    Status = "trial"
	StatusActive   Status = "active"
	StatusPastDue  Status = "past_due"
	StatusCanceled Status = "canceled"
)

func (s Status) String() string { return string(s) }

func (s Status) Valid() bool {
	switch s {
	case StatusNone, StatusTrial, StatusActive, StatusPastDue, StatusCanceled:
		return true
	}
	return false
}

// Premium reports whether the status grants paid features.
func (s Status) Premium() bool {
	return s == StatusTrial || s == StatusActive
}

// Mode is the outcome of choosing a plan.
type Mode string

const (
	ModeTrial        Mode = "trial"
	ModeFreeActive   Mode = "free_active"
	ModeNeedsPayment Mode = "needs_payment"
)
