package model

import (
	"time"

	"github.com/google/uuid"
)

// UserStreak tracks one user's consecutive-activity counter. Calendar
// dates are stored as "YYYY-MM-DD" strings bucketed by the user's
// timezone, never by UTC or server-local time.
type UserStreak struct {
	UserID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	User             User       `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	CurrentStreak    int        `gorm:"not null;default:0" json:"current_streak"`
	LongestStreak    int        `gorm:"not null;default:0" json:"longest_streak"`
	LastActivityDate *string    `gorm:"size:10" json:"last_activity_date"` // YYYY-MM-DD
	StreakStartedAt  *time.Time `json:"streak_started_at"`
	Timezone         string     `gorm:"size:64;not null;default:UTC" json:"timezone"`
	ShieldsAvailable int        `gorm:"not null;default:0" json:"shields_available"`
	ShieldsUsedWeek  int        `gorm:"not null;default:0" json:"shields_used_this_week"`
	ShieldWeekStart  *string    `gorm:"size:10" json:"shield_week_start"` // YYYY-MM-DD
	TotalActiveDays  int        `gorm:"not null;default:0" json:"total_active_days"`
	Version          int        `gorm:"not null;default:0" json:"-"` // optimistic lock
	CreatedAt        time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// ActivityLog holds the best activity observed for a user on one
// calendar date. Rows are merged, never deleted; the Qualifies flag is
// monotonic (a day can be upgraded to qualifying, never downgraded).
type ActivityLog struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_user_activity_date,priority:1;not null" json:"user_id"`
	User          User      `gorm:"foreignKey:UserID" json:"-"`
	ActivityDate  string    `gorm:"size:10;uniqueIndex:idx_user_activity_date,priority:2;not null" json:"activity_date"` // YYYY-MM-DD
	ActivityKind  string    `gorm:"size:50;not null" json:"activity_kind"`
	ActivityValue float64   `gorm:"not null" json:"activity_value"`
	Qualifies     bool      `gorm:"not null;default:false" json:"qualifies"`
	Source        string    `gorm:"size:100;not null;default:unknown" json:"source"` // provenance tag
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}
