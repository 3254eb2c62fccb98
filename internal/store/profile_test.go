package store

import (
	"testing"

	"github.com/dukerupert/shipshape/internal/database"
	"github.com/dukerupert/shipshape/internal/model"
)

func setupProfileTestDB(t *testing.T) (*ProfileStore, int64) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ps := NewProfileStore(db)
	family, err := ps.CreateFamily("Testers")
	if err != nil {
		t.Fatalf("create family: %v", err)
	}
	return ps, family.ID
}

func TestProfileCRUD(t *testing.T) {
	ps, familyID := setupProfileTestDB(t)

	p, err := ps.Create(familyID, "Dana", model.RoleCaptain, "#336699", "🧭")
	if err != nil {
		t.Fatalf("create profile: %v", err)
	}
	if p.Role != model.RoleCaptain || p.Balance != 0 {
		t.Errorf("profile = %+v", p)
	}
	if p.HasPIN {
		t.Error("new profile should have no PIN")
	}

	updated, err := ps.Update(p.ID, "Dana R", "#112233", "⚓")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Name != "Dana R" || updated.Color != "#112233" {
		t.Errorf("updated = %+v", updated)
	}

	if err := ps.Delete(p.ID); err != nil {
		t.Fatalf("delete profile: %v", err)
	}
	got, err := ps.GetByID(p.ID)
	if err != nil {
		t.Fatalf("get deleted: %v", err)
	}
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}
}

func TestProfileSortOrder(t *testing.T) {
	ps, familyID := setupProfileTestDB(t)

	for _, name := range []string{"First", "Second", "Third"} {
		if _, err := ps.Create(familyID, name, model.RoleRecruit, "#000000", ""); err != nil {
			t.Fatalf("create %s: %v", name, err)
		}
	}

	profiles, err := ps.ListByFamily(familyID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(profiles) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(profiles))
	}
	for i, want := range []string{"First", "Second", "Third"} {
		if profiles[i].Name != want {
			t.Errorf("profiles[%d] = %s, want %s", i, profiles[i].Name, want)
		}
		if profiles[i].SortOrder != i {
			t.Errorf("profiles[%d].SortOrder = %d, want %d", i, profiles[i].SortOrder, i)
		}
	}
}

func TestIncrementBalance(t *testing.T) {
	ps, familyID := setupProfileTestDB(t)

	p, _ := ps.Create(familyID, "Kid", model.RoleRecruit, "#000000", "")

	if err := ps.IncrementBalance(p.ID, 10); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if err := ps.IncrementBalance(p.ID, 5); err != nil {
		t.Fatalf("increment again: %v", err)
	}
	if err := ps.IncrementBalance(p.ID, -3); err != nil {
		t.Fatalf("negative delta: %v", err)
	}

	got, _ := ps.GetByID(p.ID)
	if got.Balance != 12 {
		t.Errorf("balance = %d, want 12", got.Balance)
	}

	if err := ps.IncrementBalance(9999, 10); err == nil {
		t.Error("crediting a missing profile should error")
	}
}

func TestDebitBalanceGuard(t *testing.T) {
	ps, familyID := setupProfileTestDB(t)

	p, _ := ps.Create(familyID, "Kid", model.RoleRecruit, "#000000", "")
	if err := ps.IncrementBalance(p.ID, 25); err != nil {
		t.Fatalf("seed: %v", err)
	}

	ok, err := ps.DebitBalance(p.ID, 20)
	if err != nil {
		t.Fatalf("debit: %v", err)
	}
	if !ok {
		t.Fatal("affordable debit refused")
	}

	// 5 left; a 20-coin debit must be refused and change nothing.
	ok, err = ps.DebitBalance(p.ID, 20)
	if err != nil {
		t.Fatalf("second debit: %v", err)
	}
	if ok {
		t.Fatal("unaffordable debit allowed")
	}
	got, _ := ps.GetByID(p.ID)
	if got.Balance != 5 {
		t.Errorf("balance = %d, want 5", got.Balance)
	}

	// Debiting the exact balance is allowed.
	ok, _ = ps.DebitBalance(p.ID, 5)
	if !ok {
		t.Error("exact-balance debit refused")
	}
	got, _ = ps.GetByID(p.ID)
	if got.Balance != 0 {
		t.Errorf("balance = %d, want 0", got.Balance)
	}
}

func TestBalanceLedger(t *testing.T) {
	ps, familyID := setupProfileTestDB(t)

	p, _ := ps.Create(familyID, "Kid", model.RoleRecruit, "#000000", "")

	if err := ps.RecordBalanceEntry(p.ID, 10, model.SourceAttempt, 1); err != nil {
		t.Fatalf("record: %v", err)
	}
	if err := ps.RecordBalanceEntry(p.ID, -4, model.SourceRedemption, 2); err != nil {
		t.Fatalf("record: %v", err)
	}

	entries, err := ps.ListBalanceEntries(p.ID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Newest first.
	if entries[0].Delta != -4 || entries[0].Source != model.SourceRedemption {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Delta != 10 || entries[1].RefID != 1 {
		t.Errorf("entries[1] = %+v", entries[1])
	}
}

func TestPINLifecycle(t *testing.T) {
	ps, familyID := setupProfileTestDB(t)

	p, _ := ps.Create(familyID, "Dana", model.RoleCaptain, "#336699", "")

	hash, err := ps.GetPINHash(p.ID)
	if err != nil {
		t.Fatalf("get empty pin: %v", err)
	}
	if hash != "" {
		t.Errorf("expected empty hash, got %q", hash)
	}

	if err := ps.SetPIN(p.ID, "fake-bcrypt-hash"); err != nil {
		t.Fatalf("set pin: %v", err)
	}
	got, _ := ps.GetByID(p.ID)
	if !got.HasPIN {
		t.Error("HasPIN should be true after SetPIN")
	}
	hash, _ = ps.GetPINHash(p.ID)
	if hash != "fake-bcrypt-hash" {
		t.Errorf("hash = %q", hash)
	}

	if err := ps.ClearPIN(p.ID); err != nil {
		t.Fatalf("clear pin: %v", err)
	}
	got, _ = ps.GetByID(p.ID)
	if got.HasPIN {
		t.Error("HasPIN should be false after ClearPIN")
	}
}
