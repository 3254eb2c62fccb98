package mission

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukerupert/shipshape/internal/store"
)

// NotifyFunc is called after a sweep applies transitions for a family, so
// the server can push the changes out over the change feed.
type NotifyFunc func(familyID int64, transitions []Transition)

// Sweeper periodically reconciles every family's missions, decoupling the
// lifecycle from UI focus events. On-demand reconciliation stays available
// through Engine.RunReconciliation.
type Sweeper struct {
	mu       sync.RWMutex
	engine   *Engine
	profiles *store.ProfileStore
	interval time.Duration
	notify   NotifyFunc
	logger   *slog.Logger
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewSweeper(engine *Engine, profiles *store.ProfileStore, interval time.Duration, notify NotifyFunc, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		engine:   engine,
		profiles: profiles,
		interval: interval,
		notify:   notify,
		logger:   logger,
	}
}

// Start begins the sweep loop. An immediate sweep runs first so missions are
// correct at boot, then one per interval.
func (s *Sweeper) Start(ctx context.Context) {
	s.mu.Lock()
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	s.mu.Unlock()

	go func() {
		defer close(s.done)
		s.sweep(ctx)

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep(ctx)
			}
		}
	}()
}

// Stop cancels the loop and waits for the in-flight sweep to finish.
func (s *Sweeper) Stop() {
	s.mu.RLock()
	cancel := s.cancel
	done := s.done
	s.mu.RUnlock()

	if cancel != nil {
		cancel()
	}
	if done != nil {
		<-done
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	familyIDs, err := s.profiles.ListFamilyIDs()
	if err != nil {
		s.logger.Error("sweep: list families", "error", err)
		return
	}

	for _, familyID := range familyIDs {
		if ctx.Err() != nil {
			return
		}
		transitions, err := s.engine.RunReconciliation(ctx, familyID)
		if err != nil {
			s.logger.Error("sweep: reconcile family", "family_id", familyID, "error", err)
			continue
		}
		if len(transitions) > 0 && s.notify != nil {
			s.notify(familyID, transitions)
		}
	}
}
