// Package interval parses forecast duration windows into comparable
// calendar-date intervals.
package interval

import (
	"errors"
	"fmt"

	"github.com/camadvisory/forecast-impact-service/internal/models"
)

// ErrInvalidDuration is returned when a duration window is missing, has the
// wrong element count, contains an unparsable date, or is reversed.
var ErrInvalidDuration = errors.New("invalid duration")

// Parse converts a two-element [start, end] duration in MM/DD/YYYY format
// into a DateInterval. A window whose start falls after its end can never
// contain a delivery date, so reversed bounds are rejected rather than
// producing a silently empty impact set.
func Parse(duration []string) (models.DateInterval, error) {
	if len(duration) != 2 {
		return models.DateInterval{}, fmt.Errorf("%w: expected [start, end], got %d element(s)", ErrInvalidDuration, len(duration))
	}

	start, err := models.ParseDate(duration[0])
	if err != nil {
		return models.DateInterval{}, fmt.Errorf("%w: start: %v", ErrInvalidDuration, err)
	}
	end, err := models.ParseDate(duration[1])
	if err != nil {
		return models.DateInterval{}, fmt.Errorf("%w: end: %v", ErrInvalidDuration, err)
	}
	if start.Time.After(end.Time) {
		return models.DateInterval{}, fmt.Errorf("%w: start %s is after end %s", ErrInvalidDuration, start, end)
	}

	return models.DateInterval{Start: start, End: end}, nil
}
