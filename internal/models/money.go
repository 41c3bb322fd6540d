package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Money rounds an amount to cents.
func Money(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// StartOfDay truncates t to midnight in loc.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, loc)
}

// Date normalizes t to a calendar date at UTC midnight.
func Date(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Nights is the calendar-day difference between check-out and check-in.
func Nights(checkIn, checkOut time.Time) int {
	return int(Date(checkOut).Sub(Date(checkIn)).Hours() / 24)
}
