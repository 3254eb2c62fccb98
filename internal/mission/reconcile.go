package mission

import (
	"time"

	"github.com/dukerupert/shipshape/internal/model"
)

// Transition is one status change produced by reconciliation.
type Transition struct {
	MissionID int64
	From      model.MissionStatus
	To        model.MissionStatus
}

// Reconcile derives the status transitions a family's missions need at the
// given instant. hasAttemptToday maps mission id to whether any attempt
// (regardless of review outcome) exists for today's calendar day.
//
// Recurring missions sleep and wake by schedule: on a non-scheduled day they
// rest in expired; on a scheduled day with no attempt yet they wake to
// active; once an attempt exists today they are left alone, whatever the
// approval processor did. Non-recurring active missions expire once their
// deadline passes. Templates and archived missions are never touched.
//
// The function is pure and idempotent: applying its transitions and running
// it again with the same inputs yields no further transitions.
func Reconcile(missions []model.Mission, hasAttemptToday map[int64]bool, now time.Time) []Transition {
	var transitions []Transition

	for _, m := range missions {
		if m.IsTemplate || m.Status == model.StatusTemplate || m.Status == model.StatusArchived {
			continue
		}

		if m.IsRecurring {
			if !ScheduledOn(m.RecurrenceDays, now.Weekday()) {
				if m.Status != model.StatusExpired {
					transitions = append(transitions, Transition{MissionID: m.ID, From: m.Status, To: model.StatusExpired})
				}
				continue
			}
			if !hasAttemptToday[m.ID] && m.Status != model.StatusActive {
				transitions = append(transitions, Transition{MissionID: m.ID, From: m.Status, To: model.StatusActive})
			}
			continue
		}

		if m.Status == model.StatusActive && m.Deadline != nil && PastDeadline(*m.Deadline, now) {
			transitions = append(transitions, Transition{MissionID: m.ID, From: m.Status, To: model.StatusExpired})
		}
	}

	return transitions
}
