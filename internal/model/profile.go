package model

import "time"

// Role distinguishes captains (who create missions and review proof) from
// recruits (who complete missions and earn coins).
type Role string

const (
	RoleCaptain Role = "captain"
	RoleRecruit Role = "recruit"
)

type Family struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Profile struct {
	ID          int64     `json:"id"`
	FamilyID    int64     `json:"family_id"`
	Name        string    `json:"name"`
	Role        Role      `json:"role"`
	Balance     int       `json:"balance"`
	Color       string    `json:"color"`
	AvatarEmoji string    `json:"avatar_emoji"`
	HasPIN      bool      `json:"has_pin"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// BalanceSource identifies which flow produced a balance delta.
type BalanceSource string

const (
	SourceAttempt    BalanceSource = "attempt"
	SourceRedemption BalanceSource = "redemption"
	SourceRefund     BalanceSource = "refund"
)

// BalanceEntry is one signed delta applied to a profile's balance. Every
// mutation of Profile.Balance writes a matching entry, so the ledger always
// sums to the stored balance.
type BalanceEntry struct {
	ID        int64         `json:"id"`
	ProfileID int64         `json:"profile_id"`
	Delta     int           `json:"delta"`
	Source    BalanceSource `json:"source"`
	RefID     int64         `json:"ref_id"`
	CreatedAt time.Time     `json:"created_at"`
}
