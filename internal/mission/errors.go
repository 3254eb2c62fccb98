package mission

import "errors"

var (
	// ErrNotFound means a referenced mission, attempt, profile, or reward
	// does not exist. No mutation was applied.
	ErrNotFound = errors.New("not found")

	// ErrNotPending means an approve/reject targeted an attempt that had
	// already been reviewed. The first reviewer won; nothing was applied.
	ErrNotPending = errors.New("attempt is not pending")

	// ErrNotTemplate means a template operation targeted a live mission.
	ErrNotTemplate = errors.New("mission is not a template")

	// ErrMissionClosed means an attempt was submitted against a template or
	// archived mission.
	ErrMissionClosed = errors.New("mission is not open for attempts")

	// ErrRewardInactive means a redemption targeted a deactivated reward.
	ErrRewardInactive = errors.New("reward is not active")

	// ErrInsufficientBalance means a redemption's balance guard failed.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrAlreadyRefunded means a refund targeted a redemption that was
	// already refunded.
	ErrAlreadyRefunded = errors.New("redemption already refunded")
)
