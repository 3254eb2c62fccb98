package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00", 0, false},
		{"08:30", 510, false},
		{"23:59", 1439, false},
		{" 12:00 ", 720, false},
		{"24:00", 0, true},
		{"12:60", 0, true},
		{"noon", 0, true},
		{"", 0, true},
		{"1230", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q): expected error", tt.in)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q): %v", tt.in, err)
			continue
		}
		if got.Minutes() != tt.want {
			t.Errorf("ParseClock(%q) = %d minutes, want %d", tt.in, got.Minutes(), tt.want)
		}
	}
}

func TestClockString(t *testing.T) {
	c, _ := ParseClock("07:05")
	if c.String() != "07:05" {
		t.Errorf("String() = %q, want 07:05", c.String())
	}
}

func TestClockJSONRoundTrip(t *testing.T) {
	c, _ := ParseClock("18:45")
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"18:45"` {
		t.Errorf("marshaled = %s", data)
	}

	var back ClockTime
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back != c {
		t.Errorf("round trip = %v, want %v", back, c)
	}

	if err := json.Unmarshal([]byte(`"25:00"`), &back); err == nil {
		t.Error("expected error for out-of-range clock")
	}
}

func TestStartOfDay(t *testing.T) {
	loc, err := time.LoadLocation("America/Los_Angeles")
	if err != nil {
		t.Skip("tzdata unavailable")
	}
	now := time.Date(2026, 3, 2, 15, 42, 7, 12345, loc)
	start := StartOfDay(now)
	if start.Hour() != 0 || start.Minute() != 0 || start.Second() != 0 {
		t.Errorf("start = %v", start)
	}
	if start.Location() != loc {
		t.Errorf("location = %v, want %v", start.Location(), loc)
	}
	if start.Day() != 2 {
		t.Errorf("day = %d, want 2", start.Day())
	}
}

func TestMinutesOfDay(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 15, 59, 0, time.UTC)
	if got := MinutesOfDay(now); got != 9*60+15 {
		t.Errorf("MinutesOfDay = %d, want %d", got, 9*60+15)
	}
}
