package model

import "time"

// Reward is a family-scoped shop item purchasable with coins.
type Reward struct {
	ID          int64     `json:"id"`
	FamilyID    int64     `json:"family_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Cost        int       `json:"cost"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type RedemptionStatus string

const (
	RedemptionRedeemed RedemptionStatus = "redeemed"
	RedemptionRefunded RedemptionStatus = "refunded"
)

// Redemption records a recruit spending coins on a reward. CostPaid is a
// snapshot of the reward's cost at purchase time.
type Redemption struct {
	ID         int64            `json:"id"`
	RewardID   int64            `json:"reward_id"`
	ProfileID  int64            `json:"profile_id"`
	CostPaid   int              `json:"cost_paid"`
	Status     RedemptionStatus `json:"status"`
	RedeemedAt time.Time        `json:"redeemed_at"`
	RefundedAt *time.Time       `json:"refunded_at,omitempty"`
}
