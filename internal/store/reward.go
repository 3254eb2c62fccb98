package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/shipshape/internal/model"
)

type RewardStore struct {
	db DBTX
}

func NewRewardStore(db *sql.DB) *RewardStore {
	return &RewardStore{db: db}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *RewardStore) WithTx(tx *sql.Tx) *RewardStore {
	return &RewardStore{db: tx}
}

// --- Reward methods ---

const rewardCols = `id, family_id, title, description, cost, active, created_at`

func scanReward(scanner interface{ Scan(...any) error }) (*model.Reward, error) {
	var r model.Reward
	var active int

	err := scanner.Scan(&r.ID, &r.FamilyID, &r.Title, &r.Description, &r.Cost, &active, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.Active = active != 0
	return &r, nil
}

func (s *RewardStore) Create(familyID int64, title, description string, cost int, active bool) (*model.Reward, error) {
	result, err := s.db.Exec(
		`INSERT INTO rewards (family_id, title, description, cost, active) VALUES (?, ?, ?, ?, ?)`,
		familyID, title, description, cost, boolToInt(active),
	)
	if err != nil {
		return nil, fmt.Errorf("insert reward: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) GetByID(id int64) (*model.Reward, error) {
	row := s.db.QueryRow(`SELECT `+rewardCols+` FROM rewards WHERE id = ?`, id)
	r, err := scanReward(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get reward: %w", err)
	}
	return r, nil
}

// List returns a family's rewards, active first, then by title.
func (s *RewardStore) List(familyID int64) ([]model.Reward, error) {
	rows, err := s.db.Query(
		`SELECT `+rewardCols+` FROM rewards WHERE family_id = ? ORDER BY active DESC, title ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list rewards: %w", err)
	}
	defer rows.Close()

	var rewards []model.Reward
	for rows.Next() {
		r, err := scanReward(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reward: %w", err)
		}
		rewards = append(rewards, *r)
	}
	return rewards, rows.Err()
}

func (s *RewardStore) Update(id int64, title, description string, cost int, active bool) (*model.Reward, error) {
	_, err := s.db.Exec(
		`UPDATE rewards SET title = ?, description = ?, cost = ?, active = ? WHERE id = ?`,
		title, description, cost, boolToInt(active), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update reward: %w", err)
	}
	return s.GetByID(id)
}

func (s *RewardStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM rewards WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reward: %w", err)
	}
	return nil
}

// --- Redemption methods ---

const redemptionCols = `id, reward_id, profile_id, cost_paid, status, redeemed_at, refunded_at`

func scanRedemption(scanner interface{ Scan(...any) error }) (*model.Redemption, error) {
	var r model.Redemption
	var refundedAt sql.NullTime

	err := scanner.Scan(&r.ID, &r.RewardID, &r.ProfileID, &r.CostPaid, &r.Status, &r.RedeemedAt, &refundedAt)
	if err != nil {
		return nil, err
	}
	if refundedAt.Valid {
		r.RefundedAt = &refundedAt.Time
	}
	return &r, nil
}

func (s *RewardStore) CreateRedemption(rewardID, profileID int64, costPaid int) (*model.Redemption, error) {
	result, err := s.db.Exec(
		`INSERT INTO reward_redemptions (reward_id, profile_id, cost_paid) VALUES (?, ?, ?)`,
		rewardID, profileID, costPaid,
	)
	if err != nil {
		return nil, fmt.Errorf("insert redemption: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetRedemption(id)
}

func (s *RewardStore) GetRedemption(id int64) (*model.Redemption, error) {
	row := s.db.QueryRow(`SELECT `+redemptionCols+` FROM reward_redemptions WHERE id = ?`, id)
	r, err := scanRedemption(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get redemption: %w", err)
	}
	return r, nil
}

// MarkRefunded flips a redemption to refunded. The status guard makes the
// refund single-shot; returns false if it was already refunded.
func (s *RewardStore) MarkRefunded(id int64, refundedAt time.Time) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE reward_redemptions SET status = ?, refunded_at = ? WHERE id = ? AND status = ?`,
		model.RedemptionRefunded, refundedAt.UTC(), id, model.RedemptionRedeemed,
	)
	if err != nil {
		return false, fmt.Errorf("mark refunded: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

func (s *RewardStore) ListRedemptionsByProfile(profileID int64) ([]model.Redemption, error) {
	rows, err := s.db.Query(
		`SELECT `+redemptionCols+` FROM reward_redemptions WHERE profile_id = ? ORDER BY redeemed_at DESC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list redemptions: %w", err)
	}
	defer rows.Close()

	var redemptions []model.Redemption
	for rows.Next() {
		r, err := scanRedemption(rows)
		if err != nil {
			return nil, fmt.Errorf("scan redemption: %w", err)
		}
		redemptions = append(redemptions, *r)
	}
	return redemptions, rows.Err()
}
