package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

const (
	RewardTrial      = "trial"
	RewardCoins      = "coins"
	RewardMultiplier = "multiplier"
	RewardCosmetic   = "cosmetic"
	RewardBadge      = "badge"
)

// RewardPayload is a tagged union keyed by the milestone's RewardKind.
// Only the fields for that kind are populated; stored as jsonb.
type RewardPayload struct {
	TrialDays  int     `json:"trial_days,omitempty"`  // trial
	CoinAmount int     `json:"coin_amount,omitempty"` // coins
	Multiplier float64 `json:"multiplier,omitempty"`  // multiplier
	CosmeticID string  `json:"cosmetic_id,omitempty"` // cosmetic
	BadgeID    string  `json:"badge_id,omitempty"`    // badge
}

func (p RewardPayload) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *RewardPayload) Scan(value interface{}) error {
	if value == nil {
		*p = RewardPayload{}
		return nil
	}
	b, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			b = []byte(s)
		} else {
			return errors.New("unsupported type for RewardPayload")
		}
	}
	return json.Unmarshal(b, p)
}

// Milestone is a static catalog entry seeded at deployment time.
type Milestone struct {
	ID             uint          `gorm:"primaryKey" json:"id"`
	DayNumber      int           `gorm:"uniqueIndex;not null" json:"day_number"`
	Name           string        `gorm:"size:100;not null" json:"name"`
	Description    string        `gorm:"type:text" json:"description"`
	Icon           string        `gorm:"size:50" json:"icon"`
	IsRepeatable   bool          `gorm:"not null;default:false" json:"is_repeatable"`
	RepeatInterval int           `gorm:"not null;default:0" json:"repeat_interval"`
	RewardKind     string        `gorm:"size:50;not null" json:"reward_kind"`
	RewardPayload  RewardPayload `gorm:"type:jsonb" json:"reward_payload"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
}

// MilestoneProgress is the permanent record of one award event. At most
// one row exists per (user, milestone) for non-repeatable milestones;
// repeatable ones are disambiguated by EarnedOn, the calendar date (in
// the user's zone) on which the occurrence was reached.
type MilestoneProgress struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	UserID          uuid.UUID  `gorm:"type:uuid;index:idx_user_milestone,priority:1;not null" json:"user_id"`
	User            User       `gorm:"foreignKey:UserID" json:"-"`
	MilestoneID     uint       `gorm:"index:idx_user_milestone,priority:2;not null" json:"milestone_id"`
	Milestone       Milestone  `gorm:"foreignKey:MilestoneID" json:"milestone"`
	StreakLength    int        `gorm:"not null" json:"streak_length"` // streak value when earned
	EarnedAt        time.Time  `gorm:"not null" json:"earned_at"`
	EarnedOn        string     `gorm:"size:10;not null" json:"earned_on"` // YYYY-MM-DD, user zone
	RewardClaimed   bool       `gorm:"not null;default:false" json:"reward_claimed"`
	RewardClaimedAt *time.Time `json:"reward_claimed_at"`
	RewardExpiresAt *time.Time `json:"reward_expires_at"`
}
