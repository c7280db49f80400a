package models

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar dates (MM/DD/YYYY).
// Dates cross the API boundary in this format and are held internally
// as UTC-midnight calendar dates with no timezone semantics.
const DateLayout = "01/02/2006"

// Date is a calendar date. The embedded time.Time is always UTC midnight.
type Date struct {
	time.Time
}

// NewDate returns the calendar date for the given year, month, day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a MM/DD/YYYY string into a Date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t.UTC()}, nil
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

// MarshalJSON renders the date as a MM/DD/YYYY string.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(DateLayout) + `"`), nil
}

// UnmarshalJSON accepts a MM/DD/YYYY string.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// DateInterval is a closed calendar-date range constructed by interval.Parse.
type DateInterval struct {
	Start Date
	End   Date
}

// Contains reports whether d falls within [Start, End], inclusive on both ends.
func (iv DateInterval) Contains(d Date) bool {
	return !d.Time.Before(iv.Start.Time) && !d.Time.After(iv.End.Time)
}
