package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/shipshape/internal/model"
)

type AttemptStore struct {
	db DBTX
}

func NewAttemptStore(db *sql.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *AttemptStore) WithTx(tx *sql.Tx) *AttemptStore {
	return &AttemptStore{db: tx}
}

const attemptCols = `id, mission_id, profile_id, status, earned_value, reward_label, proof_key, feedback, created_at, reviewed_at, reviewed_by`

func scanAttempt(scanner interface{ Scan(...any) error }) (*model.Attempt, error) {
	var a model.Attempt
	var reviewedAt sql.NullTime
	var reviewedBy sql.NullInt64

	err := scanner.Scan(
		&a.ID, &a.MissionID, &a.ProfileID, &a.Status,
		&a.EarnedValue, &a.RewardLabel, &a.ProofKey, &a.Feedback,
		&a.CreatedAt, &reviewedAt, &reviewedBy,
	)
	if err != nil {
		return nil, err
	}

	if reviewedAt.Valid {
		a.ReviewedAt = &reviewedAt.Time
	}
	if reviewedBy.Valid {
		a.ReviewedBy = &reviewedBy.Int64
	}
	return &a, nil
}

// Create inserts a pending attempt. earnedValue and rewardLabel are the
// mission's reward snapshot at submission time; createdAt is passed in
// explicitly (UTC) so day-boundary queries compare like with like.
func (s *AttemptStore) Create(missionID, profileID int64, earnedValue int, rewardLabel, proofKey string, createdAt time.Time) (*model.Attempt, error) {
	result, err := s.db.Exec(
		`INSERT INTO mission_attempts (mission_id, profile_id, earned_value, reward_label, proof_key, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		missionID, profileID, earnedValue, rewardLabel, proofKey, createdAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *AttemptStore) GetByID(id int64) (*model.Attempt, error) {
	row := s.db.QueryRow(`SELECT `+attemptCols+` FROM mission_attempts WHERE id = ?`, id)
	a, err := scanAttempt(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get attempt: %w", err)
	}
	return a, nil
}

// CountSince counts attempts for a mission created at or after since,
// regardless of status. A rejected attempt still counts toward "done today".
func (s *AttemptStore) CountSince(missionID int64, since time.Time) (int, error) {
	var count int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM mission_attempts WHERE mission_id = ? AND created_at >= ?`,
		missionID, since.UTC(),
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return count, nil
}

func (s *AttemptStore) listAttempts(query string, args ...any) ([]model.Attempt, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	var attempts []model.Attempt
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		attempts = append(attempts, *a)
	}
	return attempts, rows.Err()
}

func (s *AttemptStore) ListByMission(missionID int64) ([]model.Attempt, error) {
	return s.listAttempts(
		`SELECT `+attemptCols+` FROM mission_attempts WHERE mission_id = ? ORDER BY created_at DESC`,
		missionID,
	)
}

// ListPending returns a family's attempts awaiting review, oldest first.
func (s *AttemptStore) ListPending(familyID int64) ([]model.Attempt, error) {
	return s.listAttempts(
		`SELECT a.id, a.mission_id, a.profile_id, a.status, a.earned_value, a.reward_label, a.proof_key, a.feedback, a.created_at, a.reviewed_at, a.reviewed_by
		 FROM mission_attempts a
		 JOIN missions m ON m.id = a.mission_id
		 WHERE m.family_id = ? AND a.status = ?
		 ORDER BY a.created_at ASC`,
		familyID, model.AttemptPending,
	)
}

// ListByProfile returns a recruit's attempt history, newest first.
func (s *AttemptStore) ListByProfile(profileID int64) ([]model.Attempt, error) {
	return s.listAttempts(
		`SELECT `+attemptCols+` FROM mission_attempts WHERE profile_id = ? ORDER BY created_at DESC`,
		profileID,
	)
}

// MarkReviewed transitions a pending attempt to approved or rejected. The
// status guard in the WHERE clause makes the first reviewer win; it returns
// false when the attempt was not pending (already processed or missing).
func (s *AttemptStore) MarkReviewed(id int64, status model.AttemptStatus, reviewedBy int64, feedback string, reviewedAt time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE mission_attempts SET status = ?, feedback = ?, reviewed_at = ?, reviewed_by = ? WHERE id = ? AND status = ?`,
		status, feedback, reviewedAt.UTC(), reviewedBy, id, model.AttemptPending,
	)
	if err != nil {
		return false, fmt.Errorf("mark reviewed: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
