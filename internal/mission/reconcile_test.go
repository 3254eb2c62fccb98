package mission

import (
	"testing"
	"time"

	"github.com/dukerupert/shipshape/internal/model"
)

// monday is a fixed Monday morning used throughout these tests.
var monday = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func recurringMission(id int64, status model.MissionStatus, days ...time.Weekday) model.Mission {
	return model.Mission{
		ID:             id,
		Title:          "Swab the deck",
		IsRecurring:    true,
		RecurrenceDays: days,
		Status:         status,
	}
}

func TestReconcileWakesScheduledMission(t *testing.T) {
	missions := []model.Mission{
		recurringMission(1, model.StatusExpired, time.Monday),
	}

	got := Reconcile(missions, nil, monday)
	if len(got) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(got))
	}
	if got[0].MissionID != 1 || got[0].To != model.StatusActive {
		t.Errorf("transition = %+v, want mission 1 -> active", got[0])
	}
}

func TestReconcileSleepsUnscheduledMission(t *testing.T) {
	missions := []model.Mission{
		recurringMission(1, model.StatusActive, time.Tuesday, time.Thursday),
	}

	got := Reconcile(missions, nil, monday)
	if len(got) != 1 {
		t.Fatalf("expected 1 transition, got %d", len(got))
	}
	if got[0].To != model.StatusExpired {
		t.Errorf("transition to %s, want expired", got[0].To)
	}
}

func TestReconcileLeavesAttemptedMissionAlone(t *testing.T) {
	// Once today's attempt exists the mission is not re-woken, whatever the
	// review outcome was. A completed recurring mission stays completed.
	missions := []model.Mission{
		recurringMission(1, model.StatusCompleted, time.Monday),
		recurringMission(2, model.StatusExpired, time.Monday),
	}
	attempted := map[int64]bool{1: true, 2: true}

	got := Reconcile(missions, attempted, monday)
	if len(got) != 0 {
		t.Fatalf("expected no transitions, got %+v", got)
	}
}

func TestReconcileEmptyScheduleNeverWakes(t *testing.T) {
	missions := []model.Mission{
		recurringMission(1, model.StatusExpired),
	}
	got := Reconcile(missions, nil, monday)
	if len(got) != 0 {
		t.Fatalf("mission with no scheduled days should stay expired, got %+v", got)
	}

	// And an active one with no days sleeps.
	missions[0].Status = model.StatusActive
	got = Reconcile(missions, nil, monday)
	if len(got) != 1 || got[0].To != model.StatusExpired {
		t.Fatalf("expected sleep transition, got %+v", got)
	}
}

func TestReconcileExpiresPastDeadline(t *testing.T) {
	deadline, _ := model.ParseClock("08:00")
	missions := []model.Mission{
		{ID: 1, Title: "Take out trash", Status: model.StatusActive, Deadline: &deadline},
	}

	got := Reconcile(missions, nil, monday) // 09:00 > 08:00
	if len(got) != 1 || got[0].To != model.StatusExpired {
		t.Fatalf("expected expiry transition, got %+v", got)
	}
}

func TestReconcileDeadlineNotYetPassed(t *testing.T) {
	deadline, _ := model.ParseClock("09:00")
	missions := []model.Mission{
		{ID: 1, Status: model.StatusActive, Deadline: &deadline},
	}

	// Exactly at the deadline minute: still on time.
	got := Reconcile(missions, nil, monday)
	if len(got) != 0 {
		t.Fatalf("expected no transitions at deadline minute, got %+v", got)
	}
}

func TestReconcileNoDeadlineNeverExpires(t *testing.T) {
	missions := []model.Mission{
		{ID: 1, Status: model.StatusActive},
	}
	late := time.Date(2026, 3, 2, 23, 59, 0, 0, time.UTC)
	if got := Reconcile(missions, nil, late); len(got) != 0 {
		t.Fatalf("open-ended mission should never expire, got %+v", got)
	}
}

func TestReconcileSkipsTemplatesAndArchived(t *testing.T) {
	deadline, _ := model.ParseClock("08:00")
	missions := []model.Mission{
		{ID: 1, Status: model.StatusTemplate, IsTemplate: true, IsRecurring: true, RecurrenceDays: []time.Weekday{time.Monday}},
		{ID: 2, Status: model.StatusArchived, Deadline: &deadline},
		{ID: 3, Status: model.StatusArchived, IsRecurring: true, RecurrenceDays: []time.Weekday{time.Monday}},
	}

	if got := Reconcile(missions, nil, monday); len(got) != 0 {
		t.Fatalf("templates and archived missions must not transition, got %+v", got)
	}
}

func TestReconcileIdempotent(t *testing.T) {
	deadline, _ := model.ParseClock("08:00")
	missions := []model.Mission{
		recurringMission(1, model.StatusExpired, time.Monday),
		recurringMission(2, model.StatusActive, time.Saturday),
		{ID: 3, Status: model.StatusActive, Deadline: &deadline},
	}

	first := Reconcile(missions, nil, monday)
	if len(first) != 3 {
		t.Fatalf("expected 3 transitions, got %d", len(first))
	}

	// Apply the transitions and run again: nothing left to do.
	byID := make(map[int64]*model.Mission)
	for i := range missions {
		byID[missions[i].ID] = &missions[i]
	}
	for _, tr := range first {
		byID[tr.MissionID].Status = tr.To
	}

	second := Reconcile(missions, nil, monday)
	if len(second) != 0 {
		t.Fatalf("second run should be a no-op, got %+v", second)
	}
}
