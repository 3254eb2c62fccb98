package mission

import (
	"testing"
	"time"

	"github.com/dukerupert/shipshape/internal/model"
)

func TestScheduledOn(t *testing.T) {
	weekdays := []time.Weekday{time.Monday, time.Wednesday, time.Friday}

	if !ScheduledOn(weekdays, time.Monday) {
		t.Error("Monday should be scheduled")
	}
	if !ScheduledOn(weekdays, time.Friday) {
		t.Error("Friday should be scheduled")
	}
	if ScheduledOn(weekdays, time.Sunday) {
		t.Error("Sunday should not be scheduled")
	}
}

func TestScheduledOnEmptySet(t *testing.T) {
	// A recurring mission with no days configured never wakes.
	for d := time.Sunday; d <= time.Saturday; d++ {
		if ScheduledOn(nil, d) {
			t.Errorf("nil set should not schedule %v", d)
		}
		if ScheduledOn([]time.Weekday{}, d) {
			t.Errorf("empty set should not schedule %v", d)
		}
	}
}

func TestPastDeadline(t *testing.T) {
	deadline, err := model.ParseClock("18:00")
	if err != nil {
		t.Fatalf("parse clock: %v", err)
	}

	day := func(hour, minute int) time.Time {
		return time.Date(2026, 3, 2, hour, minute, 0, 0, time.UTC)
	}

	if PastDeadline(deadline, day(17, 59)) {
		t.Error("17:59 should be on time")
	}
	// The deadline minute itself is still on time.
	if PastDeadline(deadline, day(18, 0)) {
		t.Error("18:00 exactly should be on time")
	}
	if !PastDeadline(deadline, day(18, 1)) {
		t.Error("18:01 should be past deadline")
	}
}

func TestPastDeadlineSecondsIgnored(t *testing.T) {
	deadline, _ := model.ParseClock("18:00")
	now := time.Date(2026, 3, 2, 18, 0, 59, 0, time.UTC)
	if PastDeadline(deadline, now) {
		t.Error("18:00:59 should still count as the deadline minute")
	}
}
