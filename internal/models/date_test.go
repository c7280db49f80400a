package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseDate_RoundTrip(t *testing.T) {
	for _, s := range []string{"01/01/2025", "12/31/2024", "02/29/2024"} {
		d, err := ParseDate(s)
		if err != nil {
			t.Fatalf("ParseDate(%q) error = %v", s, err)
		}
		if got := d.String(); got != s {
			t.Errorf("ParseDate(%q).String() = %q", s, got)
		}
	}
}

func TestParseDate_Invalid(t *testing.T) {
	for _, s := range []string{"", "2025-05-01", "13/01/2025", "02/30/2025", "garbage"} {
		if _, err := ParseDate(s); err == nil {
			t.Errorf("ParseDate(%q) expected error", s)
		}
	}
}

func TestDate_UTCMidnight(t *testing.T) {
	d := NewDate(2025, time.May, 5)
	if d.Hour() != 0 || d.Minute() != 0 || d.Location() != time.UTC {
		t.Errorf("NewDate not at UTC midnight: %v", d.Time)
	}
}

func TestDate_JSON(t *testing.T) {
	d := NewDate(2025, time.May, 5)
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal error = %v", err)
	}
	if string(b) != `"05/05/2025"` {
		t.Errorf("Marshal = %s, want \"05/05/2025\"", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal error = %v", err)
	}
	if !back.Equal(d.Time) {
		t.Errorf("round trip = %v, want %v", back, d)
	}
}

func TestDate_UnmarshalInvalid(t *testing.T) {
	var d Date
	if err := json.Unmarshal([]byte(`"2025-05-05"`), &d); err == nil {
		t.Error("expected error for ISO date string")
	}
}
