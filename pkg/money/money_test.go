package money

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	cases := []struct {
		in   string
		want Amount
	}{
		{"150000.00", 150000},
		{"150000", 150000},
		{" 0.0 ", 0},
		{"-5000.00", -5000},
	}
	for _, tc := range cases {
		got, err := ParseDecimal(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}

	for _, bad := range []string{"", "abc", "10.50", "10.", "1e5", "10.0x"} {
		_, err := ParseDecimal(bad)
		assert.ErrorIs(t, err, ErrInvalidAmount, bad)
	}
}

func TestGatewayString(t *testing.T) {
	assert.Equal(t, "150000.00", Amount(150000).GatewayString())
	assert.Equal(t, "150000", Amount(150000).String())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "IDR 1.500.000", Format(1500000, "idr"))
	assert.Equal(t, "999", Format(999, ""))
	assert.Equal(t, "IDR 0", Format(0, "IDR"))
	assert.Equal(t, "IDR -12.000", Format(-12000, "IDR"))
}
