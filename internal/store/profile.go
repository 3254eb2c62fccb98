package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/shipshape/internal/model"
)

type ProfileStore struct {
	db DBTX
}

func NewProfileStore(db *sql.DB) *ProfileStore {
	return &ProfileStore{db: db}
}

// WithTx returns a copy of the store bound to the given transaction.
func (s *ProfileStore) WithTx(tx *sql.Tx) *ProfileStore {
	return &ProfileStore{db: tx}
}

// --- Family methods ---

func (s *ProfileStore) CreateFamily(name string) (*model.Family, error) {
	result, err := s.db.Exec(`INSERT INTO families (name) VALUES (?)`, name)
	if err != nil {
		return nil, fmt.Errorf("insert family: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetFamily(id)
}

func (s *ProfileStore) GetFamily(id int64) (*model.Family, error) {
	var f model.Family
	err := s.db.QueryRow(`SELECT id, name, created_at FROM families WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &f.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get family: %w", err)
	}
	return &f, nil
}

// ListFamilyIDs returns every family id, for the reconciliation sweep.
func (s *ProfileStore) ListFamilyIDs() ([]int64, error) {
	rows, err := s.db.Query(`SELECT id FROM families ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list family ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan family id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// --- Profile methods ---

const profileCols = `id, family_id, name, role, balance, color, avatar_emoji, pin IS NOT NULL, sort_order, created_at, updated_at`

func scanProfile(scanner interface{ Scan(...any) error }) (*model.Profile, error) {
	var p model.Profile
	var hasPIN int

	err := scanner.Scan(
		&p.ID, &p.FamilyID, &p.Name, &p.Role, &p.Balance,
		&p.Color, &p.AvatarEmoji, &hasPIN, &p.SortOrder,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.HasPIN = hasPIN != 0
	return &p, nil
}

func (s *ProfileStore) Create(familyID int64, name string, role model.Role, color, avatarEmoji string) (*model.Profile, error) {
	var maxOrder int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(sort_order), -1) FROM profiles WHERE family_id = ?`, familyID).Scan(&maxOrder)
	if err != nil {
		return nil, fmt.Errorf("query max sort_order: %w", err)
	}

	result, err := s.db.Exec(
		`INSERT INTO profiles (family_id, name, role, color, avatar_emoji, sort_order) VALUES (?, ?, ?, ?, ?, ?)`,
		familyID, name, role, color, avatarEmoji, maxOrder+1,
	)
	if err != nil {
		return nil, fmt.Errorf("insert profile: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProfileStore) GetByID(id int64) (*model.Profile, error) {
	row := s.db.QueryRow(`SELECT `+profileCols+` FROM profiles WHERE id = ?`, id)
	p, err := scanProfile(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

func (s *ProfileStore) ListByFamily(familyID int64) ([]model.Profile, error) {
	rows, err := s.db.Query(
		`SELECT `+profileCols+` FROM profiles WHERE family_id = ? ORDER BY sort_order ASC, name ASC`,
		familyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []model.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles = append(profiles, *p)
	}
	return profiles, rows.Err()
}

func (s *ProfileStore) Update(id int64, name, color, avatarEmoji string) (*model.Profile, error) {
	_, err := s.db.Exec(
		`UPDATE profiles SET name = ?, color = ?, avatar_emoji = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, color, avatarEmoji, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return s.GetByID(id)
}

func (s *ProfileStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete profile: %w", err)
	}
	return nil
}

// --- Balance methods ---

// IncrementBalance applies a signed delta server-side. The balance column is
// never overwritten with a value read earlier by the application.
func (s *ProfileStore) IncrementBalance(id int64, delta int) error {
	result, err := s.db.Exec(
		`UPDATE profiles SET balance = balance + ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		delta, id,
	)
	if err != nil {
		return fmt.Errorf("increment balance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("increment balance: profile %d not found", id)
	}
	return nil
}

// DebitBalance subtracts amount only if the profile can afford it. Returns
// false when the balance guard fails.
func (s *ProfileStore) DebitBalance(id int64, amount int) (bool, error) {
	result, err := s.db.Exec(
		`UPDATE profiles SET balance = balance - ?, updated_at = CURRENT_TIMESTAMP WHERE id = ? AND balance >= ?`,
		amount, id, amount,
	)
	if err != nil {
		return false, fmt.Errorf("debit balance: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// RecordBalanceEntry writes one ledger row for a balance delta.
func (s *ProfileStore) RecordBalanceEntry(profileID int64, delta int, source model.BalanceSource, refID int64) error {
	_, err := s.db.Exec(
		`INSERT INTO balance_entries (profile_id, delta, source, ref_id) VALUES (?, ?, ?, ?)`,
		profileID, delta, source, refID,
	)
	if err != nil {
		return fmt.Errorf("insert balance entry: %w", err)
	}
	return nil
}

func (s *ProfileStore) ListBalanceEntries(profileID int64) ([]model.BalanceEntry, error) {
	rows, err := s.db.Query(
		`SELECT id, profile_id, delta, source, ref_id, created_at FROM balance_entries WHERE profile_id = ? ORDER BY created_at DESC, id DESC`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("list balance entries: %w", err)
	}
	defer rows.Close()

	var entries []model.BalanceEntry
	for rows.Next() {
		var e model.BalanceEntry
		if err := rows.Scan(&e.ID, &e.ProfileID, &e.Delta, &e.Source, &e.RefID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan balance entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// --- PIN methods ---

func (s *ProfileStore) SetPIN(id int64, hashedPIN string) error {
	_, err := s.db.Exec(`UPDATE profiles SET pin = ? WHERE id = ?`, hashedPIN, id)
	if err != nil {
		return fmt.Errorf("set pin: %w", err)
	}
	return nil
}

func (s *ProfileStore) ClearPIN(id int64) error {
	_, err := s.db.Exec(`UPDATE profiles SET pin = NULL WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("clear pin: %w", err)
	}
	return nil
}

func (s *ProfileStore) GetPINHash(id int64) (string, error) {
	var pin sql.NullString
	err := s.db.QueryRow(`SELECT pin FROM profiles WHERE id = ?`, id).Scan(&pin)
	if err == sql.ErrNoRows {
		return "", fmt.Errorf("profile not found")
	}
	if err != nil {
		return "", fmt.Errorf("query pin: %w", err)
	}
	if !pin.Valid {
		return "", nil
	}
	return pin.String, nil
}
