package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// MissionStatus is the lifecycle state of a mission.
type MissionStatus string

const (
	StatusActive    MissionStatus = "active"
	StatusExpired   MissionStatus = "expired"
	StatusCompleted MissionStatus = "completed"
	StatusArchived  MissionStatus = "archived"
	StatusTemplate  MissionStatus = "template"
)

// ValidMissionStatus reports whether s is one of the five lifecycle states.
func ValidMissionStatus(s MissionStatus) bool {
	switch s {
	case StatusActive, StatusExpired, StatusCompleted, StatusArchived, StatusTemplate:
		return true
	}
	return false
}

// RewardType distinguishes coin payouts from captain-defined custom rewards.
type RewardType string

const (
	RewardCoins  RewardType = "coins"
	RewardCustom RewardType = "custom"
)

type Mission struct {
	ID                int64          `json:"id"`
	FamilyID          int64          `json:"family_id"`
	Title             string         `json:"title"`
	Description       string         `json:"description"`
	Icon              string         `json:"icon"`
	RewardType        RewardType     `json:"reward_type"`
	RewardAmount      int            `json:"reward_amount"`
	CustomRewardLabel string         `json:"custom_reward_label,omitempty"`
	AssignedTo        *int64         `json:"assigned_to"`
	IsRecurring       bool           `json:"is_recurring"`
	RecurrenceDays    []time.Weekday `json:"recurrence_days,omitempty"`
	StartTime         *ClockTime     `json:"start_time,omitempty"`
	Deadline          *ClockTime     `json:"deadline,omitempty"`
	Status            MissionStatus  `json:"status"`
	IsTemplate        bool           `json:"is_template"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

var weekdayNames = map[string]time.Weekday{
	"sun": time.Sunday, "sunday": time.Sunday,
	"mon": time.Monday, "monday": time.Monday,
	"tue": time.Tuesday, "tuesday": time.Tuesday,
	"wed": time.Wednesday, "wednesday": time.Wednesday,
	"thu": time.Thursday, "thursday": time.Thursday,
	"fri": time.Friday, "friday": time.Friday,
	"sat": time.Saturday, "saturday": time.Saturday,
}

// ParseWeekday normalizes a single weekday token. Clients have sent both
// numeric indices (0=Sunday..6=Saturday) and day names; both are accepted
// here and nowhere else.
func ParseWeekday(token string) (time.Weekday, error) {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return 0, fmt.Errorf("empty weekday")
	}
	if n, err := strconv.Atoi(token); err == nil {
		if n < 0 || n > 6 {
			return 0, fmt.Errorf("weekday index %d out of range", n)
		}
		return time.Weekday(n), nil
	}
	if wd, ok := weekdayNames[token]; ok {
		return wd, nil
	}
	return 0, fmt.Errorf("unknown weekday %q", token)
}

// ParseWeekdays parses a comma-separated weekday list like "1,3,5" or
// "mon,wed,fri" into a sorted, deduplicated set. An empty string is a valid
// empty set.
func ParseWeekdays(s string) ([]time.Weekday, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	seen := make(map[time.Weekday]bool)
	var days []time.Weekday
	for _, token := range strings.Split(s, ",") {
		wd, err := ParseWeekday(token)
		if err != nil {
			return nil, err
		}
		if !seen[wd] {
			seen[wd] = true
			days = append(days, wd)
		}
	}
	sort.Slice(days, func(i, j int) bool { return days[i] < days[j] })
	return days, nil
}

// FormatWeekdays renders a weekday set as the canonical "0,3,5" form.
func FormatWeekdays(days []time.Weekday) string {
	if len(days) == 0 {
		return ""
	}
	parts := make([]string, len(days))
	for i, d := range days {
		parts[i] = strconv.Itoa(int(d))
	}
	return strings.Join(parts, ",")
}
