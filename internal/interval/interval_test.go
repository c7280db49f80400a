package interval

import (
	"errors"
	"testing"
	"time"

	"github.com/camadvisory/forecast-impact-service/internal/models"
)

func TestParse_Valid(t *testing.T) {
	iv, err := Parse([]string{"05/01/2025", "05/10/2025"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := iv.Start.String(); got != "05/01/2025" {
		t.Errorf("Start = %s, want 05/01/2025", got)
	}
	if got := iv.End.String(); got != "05/10/2025" {
		t.Errorf("End = %s, want 05/10/2025", got)
	}
}

func TestParse_SingleDayWindow(t *testing.T) {
	iv, err := Parse([]string{"05/05/2025", "05/05/2025"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if !iv.Contains(models.NewDate(2025, time.May, 5)) {
		t.Error("single-day window should contain its own date")
	}
}

func TestParse_TrimsWhitespace(t *testing.T) {
	iv, err := Parse([]string{" 05/01/2025 ", "05/10/2025"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got := iv.Start.String(); got != "05/01/2025" {
		t.Errorf("Start = %s, want 05/01/2025", got)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		duration []string
	}{
		{"nil", nil},
		{"empty", []string{}},
		{"one element", []string{"05/01/2025"}},
		{"three elements", []string{"05/01/2025", "05/02/2025", "05/03/2025"}},
		{"unparsable start", []string{"2025-05-01", "05/10/2025"}},
		{"unparsable end", []string{"05/01/2025", "May 10 2025"}},
		{"reversed bounds", []string{"05/10/2025", "05/01/2025"}},
		{"nonexistent date", []string{"02/30/2025", "03/01/2025"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(tc.duration)
			if !errors.Is(err, ErrInvalidDuration) {
				t.Fatalf("Parse(%v) error = %v, want ErrInvalidDuration", tc.duration, err)
			}
		})
	}
}

func TestContains_InclusiveBounds(t *testing.T) {
	iv, err := Parse([]string{"05/01/2025", "05/10/2025"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	tests := []struct {
		date string
		want bool
	}{
		{"04/30/2025", false},
		{"05/01/2025", true},
		{"05/05/2025", true},
		{"05/10/2025", true},
		{"05/11/2025", false},
	}
	for _, tc := range tests {
		d, err := models.ParseDate(tc.date)
		if err != nil {
			t.Fatalf("ParseDate(%q) error = %v", tc.date, err)
		}
		if got := iv.Contains(d); got != tc.want {
			t.Errorf("Contains(%s) = %v, want %v", tc.date, got, tc.want)
		}
	}
}
