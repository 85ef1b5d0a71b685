package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/strideapp/stride-server/internal/model"
	"github.com/strideapp/stride-server/pkg/apperror"
	"gorm.io/gorm"
)

type MilestoneRepository interface {
	GetCatalog(ctx context.Context) ([]model.Milestone, error)
	GetCatalogUpTo(ctx context.Context, dayNumber int) ([]model.Milestone, error)
	HasProgress(ctx context.Context, userID uuid.UUID, milestoneID uint) (bool, error)
	HasProgressOn(ctx context.Context, userID uuid.UUID, milestoneID uint, earnedOn string) (bool, error)
	CreateProgress(ctx context.Context, progress *model.MilestoneProgress) error
	GetProgressByUser(ctx context.Context, userID uuid.UUID) ([]model.MilestoneProgress, error)
	EarnedMilestoneIDs(ctx context.Context, userID uuid.UUID) (map[uint]bool, error)
	// ClaimReward marks a progress row claimed, exactly once.
	ClaimReward(ctx context.Context, userID uuid.UUID, progressID uint, now time.Time) (*model.MilestoneProgress, error)
}

type milestoneRepository struct {
	db *gorm.DB
}

func NewMilestoneRepository(db *gorm.DB) MilestoneRepository {
	return &milestoneRepository{db: db}
}

func (r *milestoneRepository) GetCatalog(ctx context.Context) ([]model.Milestone, error) {
	var catalog []model.Milestone
	err := r.db.WithContext(ctx).Order("day_number ASC").Find(&catalog).Error
	return catalog, err
}

func (r *milestoneRepository) GetCatalogUpTo(ctx context.Context, dayNumber int) ([]model.Milestone, error) {
	var catalog []model.Milestone
	err := r.db.WithContext(ctx).
		Where("day_number <= ?", dayNumber).
		Order("day_number ASC").
		Find(&catalog).Error
	return catalog, err
}

func (r *milestoneRepository) HasProgress(ctx context.Context, userID uuid.UUID, milestoneID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.MilestoneProgress{}).
		Where("user_id = ? AND milestone_id = ?", userID, milestoneID).
		Count(&count).Error
	return count > 0, err
}

func (r *milestoneRepository) HasProgressOn(ctx context.Context, userID uuid.UUID, milestoneID uint, earnedOn string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.MilestoneProgress{}).
		Where("user_id = ? AND milestone_id = ? AND earned_on = ?", userID, milestoneID, earnedOn).
		Count(&count).Error
	return count > 0, err
}

func (r *milestoneRepository) CreateProgress(ctx context.Context, progress *model.MilestoneProgress) error {
	return r.db.WithContext(ctx).Create(progress).Error
}

func (r *milestoneRepository) GetProgressByUser(ctx context.Context, userID uuid.UUID) ([]model.MilestoneProgress, error) {
	var rows []model.MilestoneProgress
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("earned_at DESC").
		Preload("Milestone").
		Find(&rows).Error
	return rows, err
}

func (r *milestoneRepository) EarnedMilestoneIDs(ctx context.Context, userID uuid.UUID) (map[uint]bool, error) {
	var ids []uint
	err := r.db.WithContext(ctx).Model(&model.MilestoneProgress{}).
		Where("user_id = ?", userID).
		Distinct("milestone_id").
		Pluck("milestone_id", &ids).Error
	if err != nil {
		return nil, err
	}
	earned := make(map[uint]bool, len(ids))
	for _, id := range ids {
		earned[id] = true
	}
	return earned, nil
}

func (r *milestoneRepository) ClaimReward(ctx context.Context, userID uuid.UUID, progressID uint, now time.Time) (*model.MilestoneProgress, error) {
	// Conditional update: a second claim, or a claim racing another
	// device, affects zero rows.
	res := r.db.WithContext(ctx).Model(&model.MilestoneProgress{}).
		Where("id = ? AND user_id = ? AND reward_claimed = ?", progressID, userID, false).
		Where("reward_expires_at IS NULL OR reward_expires_at > ?", now).
		Updates(map[string]interface{}{
			"reward_claimed":    true,
			"reward_claimed_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, apperror.ErrConflict
	}

	var row model.MilestoneProgress
	if err := r.db.WithContext(ctx).Preload("Milestone").First(&row, progressID).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
