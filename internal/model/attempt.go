package model

import "time"

// AttemptStatus is the review state of a proof submission. Pending attempts
// transition exactly once, to approved or rejected.
type AttemptStatus string

const (
	AttemptPending  AttemptStatus = "pending"
	AttemptApproved AttemptStatus = "approved"
	AttemptRejected AttemptStatus = "rejected"
)

// Attempt is a recruit's claim of mission completion with photo evidence.
// EarnedValue and RewardLabel are snapshots of the mission's reward taken at
// submission time; they are never re-read from the mission at review time.
type Attempt struct {
	ID          int64         `json:"id"`
	MissionID   int64         `json:"mission_id"`
	ProfileID   int64         `json:"profile_id"`
	Status      AttemptStatus `json:"status"`
	EarnedValue int           `json:"earned_value"`
	RewardLabel string        `json:"reward_label,omitempty"`
	ProofKey    string        `json:"proof_key,omitempty"`
	Feedback    string        `json:"feedback,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	ReviewedAt  *time.Time    `json:"reviewed_at,omitempty"`
	ReviewedBy  *int64        `json:"reviewed_by,omitempty"`
}
