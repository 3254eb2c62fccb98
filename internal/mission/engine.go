package mission

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dukerupert/shipshape/internal/model"
	"github.com/dukerupert/shipshape/internal/store"
)

// ProofDeleter removes a stored proof photo. Deletion on rejection is
// best-effort; failures are logged, never surfaced.
type ProofDeleter interface {
	Delete(ctx context.Context, key string) error
}

// Engine owns the mission lifecycle: reconciliation, attempt review, and
// template operations. Multi-step writes run inside a single SQL
// transaction, and balance changes go through the stores' server-side
// increment so no caller ever writes back a locally cached balance.
type Engine struct {
	db       *sql.DB
	missions *store.MissionStore
	attempts *store.AttemptStore
	profiles *store.ProfileStore
	rewards  *store.RewardStore
	proofs   ProofDeleter
	logger   *slog.Logger
	now      func() time.Time
}

func NewEngine(db *sql.DB, missions *store.MissionStore, attempts *store.AttemptStore, profiles *store.ProfileStore, rewards *store.RewardStore, proofs ProofDeleter, logger *slog.Logger) *Engine {
	return &Engine{
		db:       db,
		missions: missions,
		attempts: attempts,
		profiles: profiles,
		rewards:  rewards,
		proofs:   proofs,
		logger:   logger,
		now:      time.Now,
	}
}

// readRetry wraps an idempotent read with bounded exponential backoff.
// Mutations are never retried here; their safety comes from conditional
// updates, not repetition.
func readRetry(ctx context.Context, op func() error) error {
	b := retry.WithMaxRetries(3, retry.NewExponential(100*time.Millisecond))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		if err := op(); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	})
}

// RunReconciliation wakes, sleeps, and expires a family's missions for the
// current instant and applies the resulting transitions batched by target
// status. Safe to call from a timer, a request handler, or a test; invoking
// it twice in a row with no new attempts is a no-op on the second run.
func (e *Engine) RunReconciliation(ctx context.Context, familyID int64) ([]Transition, error) {
	now := e.now()

	var live []model.Mission
	err := readRetry(ctx, func() error {
		var err error
		live, err = e.missions.ListLive(familyID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list live missions: %w", err)
	}

	dayStart := model.StartOfDay(now)
	hasAttemptToday := make(map[int64]bool)
	for _, m := range live {
		if !m.IsRecurring || !ScheduledOn(m.RecurrenceDays, now.Weekday()) {
			continue
		}
		missionID := m.ID
		var count int
		err := readRetry(ctx, func() error {
			var err error
			count, err = e.attempts.CountSince(missionID, dayStart)
			return err
		})
		if err != nil {
			return nil, fmt.Errorf("count attempts for mission %d: %w", missionID, err)
		}
		hasAttemptToday[missionID] = count > 0
	}

	transitions := Reconcile(live, hasAttemptToday, now)
	if len(transitions) == 0 {
		return nil, nil
	}

	byTarget := make(map[model.MissionStatus][]int64)
	for _, t := range transitions {
		byTarget[t.To] = append(byTarget[t.To], t.MissionID)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	missions := e.missions.WithTx(tx)
	for target, ids := range byTarget {
		if err := missions.UpdateStatusBatch(ids, target); err != nil {
			return nil, fmt.Errorf("apply transitions to %s: %w", target, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	e.logger.Info("reconciliation applied",
		"family_id", familyID,
		"transitions", len(transitions),
	)
	return transitions, nil
}

// SubmitAttempt records a recruit's proof-of-completion as a pending
// attempt, snapshotting the mission's reward so later edits cannot change
// the payout.
func (e *Engine) SubmitAttempt(ctx context.Context, missionID, profileID int64, proofKey string) (*model.Attempt, error) {
	m, err := e.missions.GetByID(missionID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("mission %d: %w", missionID, ErrNotFound)
	}
	if m.IsTemplate || m.Status == model.StatusArchived {
		return nil, fmt.Errorf("mission %d: %w", missionID, ErrMissionClosed)
	}

	p, err := e.profiles.GetByID(profileID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, fmt.Errorf("profile %d: %w", profileID, ErrNotFound)
	}

	earned := 0
	label := ""
	if m.RewardType == model.RewardCoins {
		earned = m.RewardAmount
	} else {
		label = m.CustomRewardLabel
	}

	return e.attempts.Create(missionID, profileID, earned, label, proofKey, e.now())
}

// ApproveAttempt transitions a pending attempt to approved, credits the
// recruit the attempt's snapshotted value, and completes the mission if it
// is non-recurring. All three writes commit together or not at all. A
// concurrent approval loses the status guard and gets ErrNotPending.
func (e *Engine) ApproveAttempt(ctx context.Context, attemptID, reviewerID int64) (*model.Attempt, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	attempts := e.attempts.WithTx(tx)
	a, err := attempts.GetByID(attemptID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("attempt %d: %w", attemptID, ErrNotFound)
	}

	ok, err := attempts.MarkReviewed(attemptID, model.AttemptApproved, reviewerID, "", e.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("attempt %d: %w", attemptID, ErrNotPending)
	}

	profiles := e.profiles.WithTx(tx)
	if a.EarnedValue != 0 {
		if err := profiles.IncrementBalance(a.ProfileID, a.EarnedValue); err != nil {
			return nil, err
		}
		if err := profiles.RecordBalanceEntry(a.ProfileID, a.EarnedValue, model.SourceAttempt, attemptID); err != nil {
			return nil, err
		}
	}

	missions := e.missions.WithTx(tx)
	m, err := missions.GetByID(a.MissionID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("mission %d: %w", a.MissionID, ErrNotFound)
	}
	if !m.IsRecurring {
		if err := missions.UpdateStatusBatch([]int64{m.ID}, model.StatusCompleted); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	e.logger.Info("attempt approved",
		"attempt_id", attemptID,
		"mission_id", a.MissionID,
		"profile_id", a.ProfileID,
		"earned", a.EarnedValue,
	)
	return e.attempts.GetByID(attemptID)
}

// RejectAttempt transitions a pending attempt to rejected with feedback and
// schedules best-effort deletion of the proof photo. The mission is left
// alone; a rejected attempt still counts as today's attempt, so a recurring
// mission will not re-prompt until the next scheduled day.
func (e *Engine) RejectAttempt(ctx context.Context, attemptID, reviewerID int64, reason string) (*model.Attempt, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	attempts := e.attempts.WithTx(tx)
	a, err := attempts.GetByID(attemptID)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("attempt %d: %w", attemptID, ErrNotFound)
	}

	ok, err := attempts.MarkReviewed(attemptID, model.AttemptRejected, reviewerID, reason, e.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("attempt %d: %w", attemptID, ErrNotPending)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}

	if e.proofs != nil && a.ProofKey != "" {
		key := a.ProofKey
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := e.proofs.Delete(ctx, key); err != nil {
				e.logger.Warn("delete rejected proof", "key", key, "error", err)
			}
		}()
	}

	e.logger.Info("attempt rejected",
		"attempt_id", attemptID,
		"mission_id", a.MissionID,
		"profile_id", a.ProfileID,
	)
	return e.attempts.GetByID(attemptID)
}

func copyMissionFields(src *model.Mission) *model.Mission {
	dst := *src
	dst.ID = 0
	if src.AssignedTo != nil {
		v := *src.AssignedTo
		dst.AssignedTo = &v
	}
	if src.StartTime != nil {
		v := *src.StartTime
		dst.StartTime = &v
	}
	if src.Deadline != nil {
		v := *src.Deadline
		dst.Deadline = &v
	}
	dst.RecurrenceDays = append([]time.Weekday(nil), src.RecurrenceDays...)
	return &dst
}

// InstantiateTemplate copies a template's fields into a brand-new active
// mission. The template itself is untouched.
func (e *Engine) InstantiateTemplate(ctx context.Context, templateID int64) (*model.Mission, error) {
	t, err := e.missions.GetByID(templateID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, fmt.Errorf("template %d: %w", templateID, ErrNotFound)
	}
	if !t.IsTemplate {
		return nil, fmt.Errorf("mission %d: %w", templateID, ErrNotTemplate)
	}

	live := copyMissionFields(t)
	live.IsTemplate = false
	live.Status = model.StatusActive
	return e.missions.Create(live)
}

// UpdateTemplateAndLaunch overwrites the template's fields in place and
// creates a live instance of the updated fields in the same transaction, so
// the dual write either fully succeeds or leaves both rows untouched.
func (e *Engine) UpdateTemplateAndLaunch(ctx context.Context, templateID int64, fields *model.Mission) (*model.Mission, *model.Mission, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	missions := e.missions.WithTx(tx)
	t, err := missions.GetByID(templateID)
	if err != nil {
		return nil, nil, err
	}
	if t == nil {
		return nil, nil, fmt.Errorf("template %d: %w", templateID, ErrNotFound)
	}
	if !t.IsTemplate {
		return nil, nil, fmt.Errorf("mission %d: %w", templateID, ErrNotTemplate)
	}

	updated := copyMissionFields(fields)
	updated.ID = templateID
	updated.FamilyID = t.FamilyID
	template, err := missions.Update(updated)
	if err != nil {
		return nil, nil, err
	}

	live := copyMissionFields(template)
	live.IsTemplate = false
	live.Status = model.StatusActive
	instance, err := missions.Create(live)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return template, instance, nil
}

// SaveAsTemplate copies a live mission into a new reusable template row.
func (e *Engine) SaveAsTemplate(ctx context.Context, missionID int64) (*model.Mission, error) {
	m, err := e.missions.GetByID(missionID)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, fmt.Errorf("mission %d: %w", missionID, ErrNotFound)
	}

	t := copyMissionFields(m)
	t.IsTemplate = true
	t.Status = model.StatusTemplate
	return e.missions.Create(t)
}

// RedeemReward debits a recruit's balance for a shop reward. The debit is
// guarded server-side, so two concurrent redemptions cannot overspend.
func (e *Engine) RedeemReward(ctx context.Context, rewardID, profileID int64) (*model.Redemption, error) {
	reward, err := e.rewards.GetByID(rewardID)
	if err != nil {
		return nil, err
	}
	if reward == nil {
		return nil, fmt.Errorf("reward %d: %w", rewardID, ErrNotFound)
	}
	if !reward.Active {
		return nil, fmt.Errorf("reward %d: %w", rewardID, ErrRewardInactive)
	}

	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	profiles := e.profiles.WithTx(tx)
	ok, err := profiles.DebitBalance(profileID, reward.Cost)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("profile %d: %w", profileID, ErrInsufficientBalance)
	}

	rewards := e.rewards.WithTx(tx)
	redemption, err := rewards.CreateRedemption(rewardID, profileID, reward.Cost)
	if err != nil {
		return nil, err
	}
	if err := profiles.RecordBalanceEntry(profileID, -reward.Cost, model.SourceRedemption, redemption.ID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return redemption, nil
}

// RefundRedemption reverses a redemption, crediting back the snapshotted
// cost. Single-shot: refunding twice gets ErrAlreadyRefunded.
func (e *Engine) RefundRedemption(ctx context.Context, redemptionID int64) (*model.Redemption, error) {
	tx, err := e.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	rewards := e.rewards.WithTx(tx)
	r, err := rewards.GetRedemption(redemptionID)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("redemption %d: %w", redemptionID, ErrNotFound)
	}

	ok, err := rewards.MarkRefunded(redemptionID, e.now())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("redemption %d: %w", redemptionID, ErrAlreadyRefunded)
	}

	profiles := e.profiles.WithTx(tx)
	if err := profiles.IncrementBalance(r.ProfileID, r.CostPaid); err != nil {
		return nil, err
	}
	if err := profiles.RecordBalanceEntry(r.ProfileID, r.CostPaid, model.SourceRefund, redemptionID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return e.rewards.GetRedemption(redemptionID)
}
