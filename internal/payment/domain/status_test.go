package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapGatewayStatus(t *testing.T) {
	cases := []struct {
		tx, fraud string
		want      Status
		known     bool
	}{
		{"capture", "accept", StatusSettlement, true},
		{"capture", "challenge", StatusChallenge, true},
		{"capture", "deny", StatusRejected, true},
		{"capture", "", StatusRejected, true},
		{"settlement", "", StatusSettlement, true},
		{"settlement", "accept", StatusSettlement, true},
		{"pending", "", StatusPending, true},
		{"deny", "deny", StatusDeny, true},
		{"cancel", "", StatusCancel, true},
		{"expire", "", StatusExpire, true},
		{"failure", "", StatusFailure, true},
		{"refund", "", StatusRefund, true},
		{"partial_refund", "", Status("partial_refund"), false},
		{"chargeback", "", StatusChargeback, true},
		{"authorize", "accept", Status("authorize"), false},
		{"", "", Status(""), false},
	}
	for _, tc := range cases {
		got, known := MapGatewayStatus(tc.tx, tc.fraud)
		assert.Equal(t, tc.want, got, "%s/%s", tc.tx, tc.fraud)
		assert.Equal(t, tc.known, known, "%s/%s", tc.tx, tc.fraud)
	}
}

func TestMapGatewayStatusIsDeterministic(t *testing.T) {
	for i := 0; i < 3; i++ {
		got, _ := MapGatewayStatus("capture", "accept")
		assert.Equal(t, StatusSettlement, got)
	}
}

func TestRegresses(t *testing.T) {
	assert.True(t, StatusPending.Regresses(StatusSettlement))
	assert.True(t, StatusExpire.Regresses(StatusSettlement))
	assert.False(t, StatusSettlement.Regresses(StatusPending))
	assert.False(t, StatusRefund.Regresses(StatusSettlement))
	assert.False(t, StatusCancel.Regresses(StatusExpire), "equal rank is last-write-wins")
	assert.False(t, Status("authorize").Regresses(StatusSettlement))
	assert.False(t, StatusPending.Regresses(Status("authorize")))
}
