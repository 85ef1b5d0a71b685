package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/strideapp/stride-server/internal/model"
	"github.com/strideapp/stride-server/pkg/apperror"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StreakRepository interface {
	// GetOrCreate returns the user's streak row, lazily creating a
	// zero-valued one on first activity.
	GetOrCreate(ctx context.Context, userID uuid.UUID, defaultTimezone string) (*model.UserStreak, error)
	Get(ctx context.Context, userID uuid.UUID) (*model.UserStreak, error)
	// Update persists the streak counters guarded by the version
	// column. A concurrent writer that got there first makes this
	// return apperror.ErrConflict; nothing is overwritten. The
	// timezone is deliberately not written here: it is owned by
	// SetTimezone, so a stale in-memory copy can never revert it.
	Update(ctx context.Context, streak *model.UserStreak) error
	SetTimezone(ctx context.Context, userID uuid.UUID, zone string) error
}

type streakRepository struct {
	db *gorm.DB
}

func NewStreakRepository(db *gorm.DB) StreakRepository {
	return &streakRepository{db: db}
}

func (r *streakRepository) GetOrCreate(ctx context.Context, userID uuid.UUID, defaultTimezone string) (*model.UserStreak, error) {
	var streak model.UserStreak
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error
	if err == nil {
		return &streak, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	streak = model.UserStreak{
		UserID:   userID,
		Timezone: defaultTimezone,
	}
	// Two devices can race on first activity; DoNothing + re-read
	// keeps creation idempotent.
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoNothing: true,
	}).Create(&streak).Error; err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error; err != nil {
		return nil, err
	}
	return &streak, nil
}

func (r *streakRepository) Get(ctx context.Context, userID uuid.UUID) (*model.UserStreak, error) {
	var streak model.UserStreak
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&streak).Error; err != nil {
		return nil, err
	}
	return &streak, nil
}

func (r *streakRepository) Update(ctx context.Context, streak *model.UserStreak) error {
	res := r.db.WithContext(ctx).Model(&model.UserStreak{}).
		Where("user_id = ? AND version = ?", streak.UserID, streak.Version).
		Updates(map[string]interface{}{
			"current_streak":     streak.CurrentStreak,
			"longest_streak":     streak.LongestStreak,
			"last_activity_date": streak.LastActivityDate,
			"streak_started_at":  streak.StreakStartedAt,
			"shields_available":  streak.ShieldsAvailable,
			"shields_used_week":  streak.ShieldsUsedWeek,
			"shield_week_start":  streak.ShieldWeekStart,
			"total_active_days":  streak.TotalActiveDays,
			"version":            streak.Version + 1,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperror.ErrConflict
	}
	streak.Version++
	return nil
}

func (r *streakRepository) SetTimezone(ctx context.Context, userID uuid.UUID, zone string) error {
	return r.db.WithContext(ctx).Model(&model.UserStreak{}).
		Where("user_id = ?", userID).
		Update("timezone", zone).Error
}
