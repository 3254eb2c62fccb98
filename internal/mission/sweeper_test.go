package mission

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/shipshape/internal/model"
)

func TestSweeperSweepsOnStartAndNotifies(t *testing.T) {
	f := setupEngine(t)

	m := f.createMission(t, &model.Mission{
		Title:          "Morning tidy",
		RewardAmount:   3,
		IsRecurring:    true,
		RecurrenceDays: []time.Weekday{time.Monday},
	})
	if err := f.missions.UpdateStatusBatch([]int64{m.ID}, model.StatusExpired); err != nil {
		t.Fatalf("sleep mission: %v", err)
	}

	var mu sync.Mutex
	var got []Transition
	notified := make(chan struct{}, 1)
	notify := func(familyID int64, transitions []Transition) {
		mu.Lock()
		got = append(got, transitions...)
		mu.Unlock()
		select {
		case notified <- struct{}{}:
		default:
		}
	}

	sweeper := NewSweeper(f.engine, f.profiles, time.Hour, notify, slog.Default())
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	select {
	case <-notified:
	case <-time.After(5 * time.Second):
		t.Fatal("boot sweep never notified")
	}

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 || got[0].MissionID != m.ID || got[0].To != model.StatusActive {
		t.Fatalf("transitions = %+v, want wake of mission %d", got, m.ID)
	}
}

func TestSweeperStopWaitsForLoop(t *testing.T) {
	f := setupEngine(t)

	sweeper := NewSweeper(f.engine, f.profiles, time.Hour, nil, slog.Default())
	sweeper.Start(context.Background())
	sweeper.Stop()

	select {
	case <-sweeper.done:
	default:
		t.Fatal("done channel should be closed after Stop")
	}
}

func TestSweeperDefaultInterval(t *testing.T) {
	f := setupEngine(t)
	sweeper := NewSweeper(f.engine, f.profiles, 0, nil, slog.Default())
	if sweeper.interval != time.Minute {
		t.Errorf("interval = %v, want 1m floor", sweeper.interval)
	}
}
