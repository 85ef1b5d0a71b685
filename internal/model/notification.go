package model

import (
	"time"

	"github.com/google/uuid"
)

type Notification struct {
	ID         uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	EntityID   string    `gorm:"size:36" json:"entity_id"`                     // MilestoneProgress row id, as string
	EntityType string    `gorm:"type:varchar(50);not null" json:"entity_type"` // 'milestone'
	Type       string    `gorm:"type:varchar(50);not null" json:"type"`        // 'milestone_earned'
	Message    string    `gorm:"type:text" json:"message"`
	IsRead     bool      `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"-"`
}
