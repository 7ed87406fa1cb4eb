// Package money carries monetary amounts as integer minor units.
//
// Decimal strings only exist at the edges (gateway payloads, receipts); all
// comparisons and persistence use Amount.
package money

import (
	"errors"
	"strconv"
	"strings"
)

var ErrInvalidAmount = errors.New("invalid_amount")

// Amount is an integer amount in the smallest unit the currency is billed in.
// IDR has no fractional unit, so 1 Amount == 1 rupiah.
type Amount int64

func (a Amount) Int64() int64 { return int64(a) }

func (a Amount) IsZero() bool { return a == 0 }

func (a Amount) IsNegative() bool { return a < 0 }

// String returns the amount without separators, the form gateways sign.
func (a Amount) String() string {
	return strconv.FormatInt(int64(a), 10)
}

// GatewayString renders the amount with two decimals, matching gross_amount in notifications.
func (a Amount) GatewayString() string {
	return a.String() + ".00"
}

// ParseDecimal parses a decimal string such as "150000.00" or "150000".
// A non-zero fractional part is rejected because the supported currencies
// are billed in whole units.
func ParseDecimal(raw string) (Amount, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, ErrInvalidAmount
	}
	whole, frac, hasFrac := strings.Cut(raw, ".")
	if hasFrac {
		if frac == "" || strings.Trim(frac, "0") != "" {
			return 0, ErrInvalidAmount
		}
		for _, r := range frac {
			if r < '0' || r > '9' {
				return 0, ErrInvalidAmount
			}
		}
	}
	value, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return Amount(value), nil
}

// Format renders the amount with thousands separators for display, e.g. "IDR 1.500.000".
func Format(a Amount, currency string) string {
	negative := a < 0
	digits := strconv.FormatInt(int64(a), 10)
	if negative {
		digits = digits[1:]
	}

	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(digits[i : i+3])
	}

	out := b.String()
	if negative {
		out = "-" + out
	}
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return out
	}
	return currency + " " + out
}
