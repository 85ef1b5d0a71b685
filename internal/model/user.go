package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	TierFree = "free"
	TierPlus = "plus"
	TierPro  = "pro"
)

// ShieldCapForTier maps a subscription tier to the maximum number of
// streak shields the account may hold.
func ShieldCapForTier(tier string) int {
	switch tier {
	case TierPro:
		return 5
	case TierPlus:
		return 3
	default:
		return 1
	}
}

type User struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username         string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email            string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	PasswordHash     string    `gorm:"size:255;not null" json:"-"`
	SubscriptionTier string    `gorm:"size:20;not null;default:free" json:"subscription_tier"` // 'free', 'plus', 'pro'
	AvatarURL        *string   `gorm:"type:text" json:"avatar_url,omitempty"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}
