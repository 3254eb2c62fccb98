package mission

import (
	"time"

	"github.com/dukerupert/shipshape/internal/model"
)

// ScheduledOn reports whether a weekday set includes the given day. An empty
// or nil set schedules nothing: a recurring mission with no days configured
// simply never wakes.
func ScheduledOn(days []time.Weekday, day time.Weekday) bool {
	for _, d := range days {
		if d == day {
			return true
		}
	}
	return false
}

// PastDeadline reports whether now's time of day is strictly after the
// deadline. At exactly the deadline minute the mission is still on time.
func PastDeadline(deadline model.ClockTime, now time.Time) bool {
	return model.MinutesOfDay(now) > deadline.Minutes()
}
