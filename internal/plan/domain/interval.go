package domain

import (
	"fmt"
	"time"
)

type Interval string

const (
	IntervalMonth Interval = "month"
	IntervalYear  Interval = "year"
)

func ParseInterval(v string) (Interval, error) {
	switch Interval(v) {
	case IntervalMonth, IntervalYear:
		return Interval(v), nil
	}
	return "", fmt.Errorf("unknown interval %q", v)
}

// AddInterval advances t by one calendar interval. When the target month is
// shorter than t's day, the result is clamped to the last day of that month
// (Jan 31 + 1 month = Feb 28/29), unlike time.AddDate which overflows.
func AddInterval(t time.Time, interval Interval) time.Time {
	switch interval {
	case IntervalYear:
		return addMonthsClamped(t, 12)
	default:
		return addMonthsClamped(t, 1)
	}
}

// AddDays advances t by n whole days.
func AddDays(t time.Time, n int) time.Time {
	return t.AddDate(0, 0, n)
}

func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	hour, min, sec := t.Clock()

	firstOfTarget := time.Date(year, month+time.Month(months), 1, hour, min, sec, t.Nanosecond(), t.Location())
	lastDay := daysIn(firstOfTarget.Month(), firstOfTarget.Year())
	if day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, hour, min, sec, t.Nanosecond(), t.Location())
}

func daysIn(m time.Month, year int) int {
	return time.Date(year, m+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
