package model

import (
	"testing"
	"time"
)

func TestParseWeekday(t *testing.T) {
	tests := []struct {
		in   string
		want time.Weekday
	}{
		{"0", time.Sunday},
		{"6", time.Saturday},
		{"mon", time.Monday},
		{"Wednesday", time.Wednesday},
		{" FRI ", time.Friday},
	}
	for _, tt := range tests {
		got, err := ParseWeekday(tt.in)
		if err != nil {
			t.Errorf("ParseWeekday(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseWeekday(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "7", "-1", "funday"} {
		if _, err := ParseWeekday(bad); err == nil {
			t.Errorf("ParseWeekday(%q): expected error", bad)
		}
	}
}

func TestParseWeekdaysSortsAndDedupes(t *testing.T) {
	got, err := ParseWeekdays("fri,1,mon,5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := []time.Weekday{time.Monday, time.Friday}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}

func TestParseWeekdaysEmpty(t *testing.T) {
	got, err := ParseWeekdays("")
	if err != nil {
		t.Fatalf("empty string: %v", err)
	}
	if got != nil {
		t.Errorf("empty string = %v, want nil set", got)
	}
}

func TestFormatWeekdaysRoundTrip(t *testing.T) {
	days := []time.Weekday{time.Sunday, time.Wednesday, time.Saturday}
	s := FormatWeekdays(days)
	if s != "0,3,6" {
		t.Errorf("formatted = %q, want 0,3,6", s)
	}

	back, err := ParseWeekdays(s)
	if err != nil {
		t.Fatalf("reparse: %v", err)
	}
	if len(back) != 3 || back[0] != time.Sunday || back[2] != time.Saturday {
		t.Errorf("round trip = %v", back)
	}

	if FormatWeekdays(nil) != "" {
		t.Error("nil set should format as empty string")
	}
}

func TestValidMissionStatus(t *testing.T) {
	for _, s := range []MissionStatus{StatusActive, StatusExpired, StatusCompleted, StatusArchived, StatusTemplate} {
		if !ValidMissionStatus(s) {
			t.Errorf("%s should be valid", s)
		}
	}
	if ValidMissionStatus("paused") {
		t.Error("paused should be invalid")
	}
}
