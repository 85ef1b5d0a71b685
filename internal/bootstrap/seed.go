package bootstrap

import (
	"log"

	"github.com/strideapp/stride-server/internal/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// SeedMilestones installs the static reward catalog. Entries are keyed
// by day_number; existing entries are left untouched so presentation
// edits made in production survive restarts.
func SeedMilestones(db *gorm.DB) error {
	catalog := []model.Milestone{
		{
			DayNumber:   3,
			Name:        "Warming Up",
			Description: "Three days of activity in a row.",
			Icon:        "flame-small",
			RewardKind:  model.RewardCoins,
			RewardPayload: model.RewardPayload{
				CoinAmount: 50,
			},
		},
		{
			DayNumber:      7,
			Name:           "Week Strong",
			Description:    "A full week without missing a day.",
			Icon:           "flame",
			IsRepeatable:   true,
			RepeatInterval: 7,
			RewardKind:     model.RewardCoins,
			RewardPayload: model.RewardPayload{
				CoinAmount: 100,
			},
		},
		{
			DayNumber:   14,
			Name:        "Fortnight Fire",
			Description: "Fourteen consecutive active days.",
			Icon:        "flame-double",
			RewardKind:  model.RewardTrial,
			RewardPayload: model.RewardPayload{
				TrialDays: 7,
			},
		},
		{
			DayNumber:      30,
			Name:           "Monthly Machine",
			Description:    "Thirty days straight.",
			Icon:           "trophy-bronze",
			IsRepeatable:   true,
			RepeatInterval: 30,
			RewardKind:     model.RewardMultiplier,
			RewardPayload: model.RewardPayload{
				Multiplier: 1.5,
			},
		},
		{
			DayNumber:   50,
			Name:        "Half Century",
			Description: "Fifty consecutive active days.",
			Icon:        "trophy-silver",
			RewardKind:  model.RewardCosmetic,
			RewardPayload: model.RewardPayload{
				CosmeticID: "aura_gold",
			},
		},
		{
			DayNumber:   100,
			Name:        "Century Club",
			Description: "One hundred days without breaking the chain.",
			Icon:        "trophy-gold",
			RewardKind:  model.RewardBadge,
			RewardPayload: model.RewardPayload{
				BadgeID: "century_club",
			},
		},
		{
			DayNumber:   365,
			Name:        "Year of You",
			Description: "A full year of daily activity.",
			Icon:        "crown",
			RewardKind:  model.RewardBadge,
			RewardPayload: model.RewardPayload{
				BadgeID: "year_of_you",
			},
		},
	}

	for _, milestone := range catalog {
		var count int64
		if err := db.Model(&model.Milestone{}).
			Where("day_number = ?", milestone.DayNumber).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := db.Create(&milestone).Error; err != nil {
				return err
			}
		}
	}

	return nil
}

// SeedDevUser creates a throwaway account for local development.
func SeedDevUser(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.User{}).
		Where("email = ?", "dev@stride.app").
		Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("Dev user already exists, skipping seed")
		return nil
	}

	password := "stride-dev"
	hashedPasswordBytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	devUser := model.User{
		Username:         "dev",
		Email:            "dev@stride.app",
		PasswordHash:     string(hashedPasswordBytes),
		SubscriptionTier: model.TierPlus,
	}

	if err := db.Create(&devUser).Error; err != nil {
		return err
	}

	log.Println("✅ Dev user seeded successfully")
	log.Println("   Email: dev@stride.app")
	log.Println("   Password: stride-dev")

	return nil
}
