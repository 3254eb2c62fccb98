package store

import (
	"testing"
	"time"

	"github.com/dukerupert/shipshape/internal/database"
	"github.com/dukerupert/shipshape/internal/model"
)

func setupRewardTestDB(t *testing.T) (*RewardStore, int64, int64) {
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
	recruit, err := ps.Create(family.ID, "Kid", model.RoleRecruit, "#000000", "")
	if err != nil {
		t.Fatalf("create recruit: %v", err)
	}
	return NewRewardStore(db), family.ID, recruit.ID
}

func TestRewardCRUD(t *testing.T) {
	rs, familyID, _ := setupRewardTestDB(t)

	r, err := rs.Create(familyID, "Extra screen time", "30 minutes", 15, true)
	if err != nil {
		t.Fatalf("create reward: %v", err)
	}
	if r.Cost != 15 || !r.Active {
		t.Errorf("reward = %+v", r)
	}

	updated, err := rs.Update(r.ID, "Extra screen time", "An hour", 25, false)
	if err != nil {
		t.Fatalf("update reward: %v", err)
	}
	if updated.Cost != 25 || updated.Active {
		t.Errorf("updated = %+v", updated)
	}

	if err := rs.Delete(r.ID); err != nil {
		t.Fatalf("delete reward: %v", err)
	}
	got, _ := rs.GetByID(r.ID)
	if got != nil {
		t.Errorf("expected nil after delete, got %+v", got)
	}
}

func TestRewardListOrdering(t *testing.T) {
	rs, familyID, _ := setupRewardTestDB(t)

	rs.Create(familyID, "Zebra ride", "", 100, false)
	rs.Create(familyID, "Apple pie", "", 10, true)
	rs.Create(familyID, "Movie pick", "", 20, true)

	rewards, err := rs.List(familyID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rewards) != 3 {
		t.Fatalf("expected 3 rewards, got %d", len(rewards))
	}
	// Active first, then alphabetical; inactive trail.
	wantTitles := []string{"Apple pie", "Movie pick", "Zebra ride"}
	for i, want := range wantTitles {
		if rewards[i].Title != want {
			t.Errorf("rewards[%d] = %s, want %s", i, rewards[i].Title, want)
		}
	}
}

func TestRedemptionRefundGuard(t *testing.T) {
	rs, familyID, recruitID := setupRewardTestDB(t)

	r, _ := rs.Create(familyID, "Stay up late", "", 40, true)
	redemption, err := rs.CreateRedemption(r.ID, recruitID, 40)
	if err != nil {
		t.Fatalf("create redemption: %v", err)
	}
	if redemption.Status != model.RedemptionRedeemed || redemption.CostPaid != 40 {
		t.Errorf("redemption = %+v", redemption)
	}

	now := time.Now()
	ok, err := rs.MarkRefunded(redemption.ID, now)
	if err != nil {
		t.Fatalf("refund: %v", err)
	}
	if !ok {
		t.Fatal("first refund should succeed")
	}

	ok, err = rs.MarkRefunded(redemption.ID, now)
	if err != nil {
		t.Fatalf("second refund: %v", err)
	}
	if ok {
		t.Fatal("refund must be single-shot")
	}

	got, _ := rs.GetRedemption(redemption.ID)
	if got.Status != model.RedemptionRefunded || got.RefundedAt == nil {
		t.Errorf("redemption after refund = %+v", got)
	}
}

func TestRedemptionHistory(t *testing.T) {
	rs, familyID, recruitID := setupRewardTestDB(t)

	r, _ := rs.Create(familyID, "Ice cream", "", 10, true)
	rs.CreateRedemption(r.ID, recruitID, 10)
	rs.CreateRedemption(r.ID, recruitID, 10)

	history, err := rs.ListRedemptionsByProfile(recruitID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 redemptions, got %d", len(history))
	}
}
