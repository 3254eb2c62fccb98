package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/shipshape/internal/model"
)

type MissionStore struct {
	db DBTX
}

func NewMissionStore(db *sql.DB) *MissionStore {
	return &MissionStore{db: db}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *MissionStore) WithTx(tx *sql.Tx) *MissionStore {
	return &MissionStore{db: tx}
}

const missionCols = `id, family_id, title, description, icon, reward_type, reward_amount, custom_reward_label, assigned_to, is_recurring, recurrence_days, start_time, deadline, status, is_template, created_at, updated_at`

func scanMission(scanner interface{ Scan(...any) error }) (*model.Mission, error) {
	var m model.Mission
	var assignedTo sql.NullInt64
	var recurring, template int
	var days string
	var startTime, deadline sql.NullString

	err := scanner.Scan(
		&m.ID, &m.FamilyID, &m.Title, &m.Description, &m.Icon,
		&m.RewardType, &m.RewardAmount, &m.CustomRewardLabel,
		&assignedTo, &recurring, &days, &startTime, &deadline,
		&m.Status, &template, &m.CreatedAt, &m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if assignedTo.Valid {
		m.AssignedTo = &assignedTo.Int64
	}
	m.IsRecurring = recurring != 0
	m.IsTemplate = template != 0

	m.RecurrenceDays, err = model.ParseWeekdays(days)
	if err != nil {
		return nil, fmt.Errorf("recurrence days for mission %d: %w", m.ID, err)
	}
	if startTime.Valid {
		ct, err := model.ParseClock(startTime.String)
		if err != nil {
			return nil, fmt.Errorf("start time for mission %d: %w", m.ID, err)
		}
		m.StartTime = &ct
	}
	if deadline.Valid {
		ct, err := model.ParseClock(deadline.String)
		if err != nil {
			return nil, fmt.Errorf("deadline for mission %d: %w", m.ID, err)
		}
		m.Deadline = &ct
	}
	return &m, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func clockToNull(c *model.ClockTime) sql.NullString {
	if c == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: c.String(), Valid: true}
}

func int64ToNull(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}

func (s *MissionStore) Create(m *model.Mission) (*model.Mission, error) {
	status := m.Status
	if status == "" {
		status = model.StatusActive
	}
	if m.IsTemplate {
		status = model.StatusTemplate
	}

	result, err := s.db.Exec(
		`INSERT INTO missions (family_id, title, description, icon, reward_type, reward_amount, custom_reward_label, assigned_to, is_recurring, recurrence_days, start_time, deadline, status, is_template)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.FamilyID, m.Title, m.Description, m.Icon,
		m.RewardType, m.RewardAmount, m.CustomRewardLabel,
		int64ToNull(m.AssignedTo), boolToInt(m.IsRecurring),
		model.FormatWeekdays(m.RecurrenceDays),
		clockToNull(m.StartTime), clockToNull(m.Deadline),
		status, boolToInt(m.IsTemplate),
	)
	if err != nil {
		return nil, fmt.Errorf("insert mission: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *MissionStore) GetByID(id int64) (*model.Mission, error) {
	row := s.db.QueryRow(`SELECT `+missionCols+` FROM missions WHERE id = ?`, id)
	m, err := scanMission(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mission: %w", err)
	}
	return m, nil
}

func (s *MissionStore) list(query string, args ...any) ([]model.Mission, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list missions: %w", err)
	}
	defer rows.Close()

	var missions []model.Mission
	for rows.Next() {
		m, err := scanMission(rows)
		if err != nil {
			return nil, fmt.Errorf("scan mission: %w", err)
		}
		missions = append(missions, *m)
	}
	return missions, rows.Err()
}

// List returns a family's missions, optionally filtered by status. Template
// rows are excluded unless isTemplate is true, so templates never leak into
// live status tabs.
func (s *MissionStore) List(familyID int64, status *model.MissionStatus, isTemplate bool) ([]model.Mission, error) {
	q := `SELECT ` + missionCols + ` FROM missions WHERE family_id = ? AND is_template = ?`
	args := []any{familyID, boolToInt(isTemplate)}
	if status != nil {
		q += ` AND status = ?`
		args = append(args, *status)
	}
	q += ` ORDER BY created_at ASC, id ASC`
	return s.list(q, args...)
}

// ListLive returns every non-template mission that reconciliation may touch:
// all statuses except archived and template.
func (s *MissionStore) ListLive(familyID int64) ([]model.Mission, error) {
	return s.list(
		`SELECT `+missionCols+` FROM missions WHERE family_id = ? AND is_template = 0 AND status NOT IN (?, ?) ORDER BY created_at ASC, id ASC`,
		familyID, model.StatusArchived, model.StatusTemplate,
	)
}

func (s *MissionStore) ListTemplates(familyID int64) ([]model.Mission, error) {
	return s.list(
		`SELECT `+missionCols+` FROM missions WHERE family_id = ? AND is_template = 1 ORDER BY title ASC`,
		familyID,
	)
}

// Update overwrites a mission's editable fields. Status and is_template are
// not touched here; those move only through UpdateStatusBatch, Archive, and
// the template operations.
func (s *MissionStore) Update(m *model.Mission) (*model.Mission, error) {
	_, err := s.db.Exec(
		`UPDATE missions SET title = ?, description = ?, icon = ?, reward_type = ?, reward_amount = ?, custom_reward_label = ?, assigned_to = ?, is_recurring = ?, recurrence_days = ?, start_time = ?, deadline = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		m.Title, m.Description, m.Icon,
		m.RewardType, m.RewardAmount, m.CustomRewardLabel,
		int64ToNull(m.AssignedTo), boolToInt(m.IsRecurring),
		model.FormatWeekdays(m.RecurrenceDays),
		clockToNull(m.StartTime), clockToNull(m.Deadline),
		m.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update mission: %w", err)
	}
	return s.GetByID(m.ID)
}

// UpdateStatusBatch moves all given missions to status in one statement.
func (s *MissionStore) UpdateStatusBatch(ids []int64, status model.MissionStatus) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(ids)+1)
	args = append(args, status)
	for _, id := range ids {
		args = append(args, id)
	}

	_, err := s.db.Exec(
		`UPDATE missions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("batch update status: %w", err)
	}
	return nil
}

// Archive is the captain's delete: the row stays for attempt history.
func (s *MissionStore) Archive(id int64) error {
	_, err := s.db.Exec(
		`UPDATE missions SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.StatusArchived, id,
	)
	if err != nil {
		return fmt.Errorf("archive mission: %w", err)
	}
	return nil
}

// Delete physically removes a mission row. Only templates are deleted;
// callers enforce that.
func (s *MissionStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM missions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete mission: %w", err)
	}
	return nil
}
