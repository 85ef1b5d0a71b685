package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/strideapp/stride-server/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ActivityRepository interface {
	// RecordActivity upserts the entry for (user, date) and reports
	// whether the date was already qualifying before this call. The
	// merge is monotonic: an existing qualifying day is never
	// downgraded by a later non-qualifying report.
	RecordActivity(ctx context.Context, entry *model.ActivityLog) (wasAlreadyQualifying bool, err error)
	GetByDate(ctx context.Context, userID uuid.UUID, date string) (*model.ActivityLog, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) RecordActivity(ctx context.Context, entry *model.ActivityLog) (bool, error) {
	wasAlreadyQualifying := false

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.ActivityLog
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND activity_date = ?", entry.UserID, entry.ActivityDate).
			First(&existing).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err == nil {
			wasAlreadyQualifying = existing.Qualifies
		}

		// Latest report wins for kind/value/source; qualifies only
		// ever flips false -> true.
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}, {Name: "activity_date"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"activity_kind":  entry.ActivityKind,
				"activity_value": entry.ActivityValue,
				"source":         entry.Source,
				"qualifies":      gorm.Expr("activity_logs.qualifies OR excluded.qualifies"),
				"updated_at":     gorm.Expr("CURRENT_TIMESTAMP"),
			}),
		}).Create(entry).Error
	})

	return wasAlreadyQualifying, err
}

func (r *activityRepository) GetByDate(ctx context.Context, userID uuid.UUID, date string) (*model.ActivityLog, error) {
	var entry model.ActivityLog
	if err := r.db.WithContext(ctx).
		Where("user_id = ? AND activity_date = ?", userID, date).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}
