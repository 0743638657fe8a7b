package core

import (
	"strings"
	"time"
)

const (
	// DateLayout is the date-only form typed into the grid.
	DateLayout = "2006-01-02"
	// PeriodLayout is the statement period form.
	PeriodLayout = "2006-01"
)

// ParseDate accepts a date-only string or a full RFC 3339 date-time.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if len(s) == len(DateLayout) {
		d, err := time.ParseInLocation(DateLayout, s, time.UTC)
		if err != nil {
			return time.Time{}, ErrInvalidDate
		}
		return d, nil
	}
	d, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	return d, nil
}

// NormalizeDate turns a date-only string into a full date-time at midnight UTC.
// Any other input is returned unchanged.
func NormalizeDate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) != len(DateLayout) {
		return s
	}
	d, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return s
	}
	return d.Format(time.RFC3339)
}

// ParsePeriod validates a YYYY-MM statement period.
func ParsePeriod(s string) (time.Time, error) {
	p, err := time.ParseInLocation(PeriodLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidPeriod
	}
	return p, nil
}

// PeriodOf returns the statement period a date belongs to.
func PeriodOf(t time.Time) string {
	return t.UTC().Format(PeriodLayout)
}

// ShiftPeriod moves a period by n months. Invalid periods are returned as-is.
func ShiftPeriod(period string, n int) string {
	p, err := ParsePeriod(period)
	if err != nil {
		return period
	}
	return p.AddDate(0, n, 0).Format(PeriodLayout)
}

// InPeriod reports whether t falls in period. An empty period matches everything.
func InPeriod(t time.Time, period string) bool {
	if period == "" {
		return true
	}
	return PeriodOf(t) == period
}
