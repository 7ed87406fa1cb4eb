package domain

// Status is the internal payment status. Values match the gateway's
// transaction_status vocabulary, except capture which is resolved by fraud status.
type Status string

const (
	StatusPending    Status = "pending"
	StatusSettlement Status = "settlement"
	StatusCapture    Status = "capture"
	StatusChallenge  Status = "challenge"
	StatusRejected   Status = "rejected"
	StatusDeny       Status = "deny"
	StatusCancel     Status = "cancel"
	StatusExpire     Status = "expire"
	StatusFailure    Status = "failure"
	StatusRefund     Status = "refund"
	StatusChargeback Status = "chargeback"
)

const (
	FraudAccept    = "accept"
	FraudChallenge = "challenge"
	FraudDeny      = "deny"
)

// rank orders statuses by how far a transaction has progressed. Failure
// outcomes share a rank so last-write-wins among them.
var rank = map[Status]int{
	StatusPending:    0,
	StatusChallenge:  1,
	StatusCapture:    2,
	StatusRejected:   2,
	StatusDeny:       2,
	StatusCancel:     2,
	StatusExpire:     2,
	StatusFailure:    2,
	StatusSettlement: 3,
	StatusRefund:     4,
	StatusChargeback: 4,
}

func (s Status) String() string { return string(s) }

// Known reports whether s is part of the recognised vocabulary.
func (s Status) Known() bool {
	_, ok := rank[s]
	return ok
}

// Rank returns the progression rank, or -1 for unrecognised statuses.
func (s Status) Rank() int {
	if r, ok := rank[s]; ok {
		return r
	}
	return -1
}

// Regresses reports whether moving from current to s lowers the rank.
// Unrecognised statuses on either side never count as a regression.
func (s Status) Regresses(current Status) bool {
	if !s.Known() || !current.Known() {
		return false
	}
	return s.Rank() < current.Rank()
}

func (s Status) IsSettled() bool { return s == StatusSettlement }

func (s Status) IsReversal() bool { return s == StatusRefund || s == StatusChargeback }

// MapGatewayStatus maps a notification's (transaction_status, fraud_status)
// pair to an internal status. known is false for statuses outside the
// vocabulary; those are passed through unchanged and must be reviewed.
func MapGatewayStatus(transactionStatus, fraudStatus string) (status Status, known bool) {
	switch Status(transactionStatus) {
	case StatusCapture:
		switch fraudStatus {
		case FraudAccept:
			return StatusSettlement, true
		case FraudChallenge:
			return StatusChallenge, true
		default:
			return StatusRejected, true
		}
	case StatusPending, StatusSettlement, StatusChallenge, StatusRejected, StatusDeny,
		StatusCancel, StatusExpire, StatusFailure, StatusRefund, StatusChargeback:
		return Status(transactionStatus), true
	}
	return Status(transactionStatus), false
}
