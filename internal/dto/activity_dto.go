package dto

import (
	"time"

	"github.com/strideapp/stride-server/internal/model"
)

// LogActivityRequest is the per-day activity report. ActivityValue is a
// pointer so an explicit zero survives the required check.
type LogActivityRequest struct {
	ActivityKind     string   `json:"activity_kind" binding:"required,oneof=steps workout competition_goal active_minutes rings_closed custom"`
	ActivityValue    *float64 `json:"activity_value" binding:"required,gte=0"`
	Source           string   `json:"source"`
	OverrideTimezone string   `json:"override_timezone"`
	OverrideDate     string   `json:"override_date" binding:"omitempty,datetime=2006-01-02"`
}

type MilestoneEarned struct {
	ProgressID      uint                `json:"progress_id"`
	MilestoneID     uint                `json:"milestone_id"`
	DayNumber       int                 `json:"day_number"`
	Name            string              `json:"name"`
	RewardKind      string              `json:"reward_kind"`
	RewardPayload   model.RewardPayload `json:"reward_payload"`
	RewardExpiresAt *time.Time          `json:"reward_expires_at"`
}

type NextMilestone struct {
	DayNumber int    `json:"day_number"`
	Name      string `json:"name"`
	DaysAway  int    `json:"days_away"`
}

type StreakStatus struct {
	CurrentStreak    int               `json:"current_streak"`
	LongestStreak    int               `json:"longest_streak"`
	StreakContinued  bool              `json:"streak_continued"`
	StreakStarted    bool              `json:"streak_started"`
	StreakBroken     bool              `json:"streak_broken"`
	ShieldUsed       bool              `json:"shield_used"`
	ShieldsRemaining int               `json:"shields_remaining"`
	MilestonesEarned []MilestoneEarned `json:"milestones_earned"`
	NextMilestone    *NextMilestone    `json:"next_milestone"`
	TotalActiveDays  int               `json:"total_active_days"`
}

type LogActivityResponse struct {
	ActivityLogged           bool          `json:"activity_logged"`
	ActivityDate             string        `json:"activity_date"`
	QualifiesForStreak       bool          `json:"qualifies_for_streak"`
	WasNewQualifyingActivity bool          `json:"was_new_qualifying_activity"`
	StreakProcessed          bool          `json:"streak_processed"`
	StreakStatus             *StreakStatus `json:"streak_status"`
	Error                    string        `json:"error,omitempty"`
}
