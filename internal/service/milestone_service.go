package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/strideapp/stride-server/internal/dto"
	"github.com/strideapp/stride-server/internal/model"
	"github.com/strideapp/stride-server/internal/repository"
	"github.com/strideapp/stride-server/internal/timeutil"
)

type MilestoneService interface {
	// CheckAndAward records every catalog entry that newly qualifies at
	// the given streak length. Non-repeatable entries fire once ever;
	// repeatable ones fire once per matching occurrence. today is the
	// calendar date the streak transition was processed on, so the
	// earn date always matches the processed activity date.
	CheckAndAward(ctx context.Context, userID uuid.UUID, newStreakLength int, today string) ([]dto.MilestoneEarned, error)
	NextMilestone(ctx context.Context, userID uuid.UUID, currentStreak int) (*dto.NextMilestone, error)
	GetProgress(ctx context.Context, userID uuid.UUID) ([]model.MilestoneProgress, error)
	ClaimReward(ctx context.Context, userID uuid.UUID, progressID uint) (*model.MilestoneProgress, error)
}

type milestoneService struct {
	repo          repository.MilestoneRepository
	notifications NotificationService
	clock         timeutil.Clock
}

func NewMilestoneService(repo repository.MilestoneRepository, notifications NotificationService, clock timeutil.Clock) MilestoneService {
	return &milestoneService{
		repo:          repo,
		notifications: notifications,
		clock:         clock,
	}
}

func (s *milestoneService) CheckAndAward(ctx context.Context, userID uuid.UUID, newStreakLength int, today string) ([]dto.MilestoneEarned, error) {
	catalog, err := s.repo.GetCatalogUpTo(ctx, newStreakLength)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	earned := make([]dto.MilestoneEarned, 0)

	for _, m := range catalog {
		award := false
		switch {
		case !m.IsRepeatable:
			if m.DayNumber != newStreakLength {
				break
			}
			exists, err := s.repo.HasProgress(ctx, userID, m.ID)
			if err != nil {
				return earned, err
			}
			award = !exists
		case m.RepeatInterval > 0 && (newStreakLength-m.DayNumber)%m.RepeatInterval == 0:
			// An occurrence can only be reached once per calendar day,
			// so an award dated today marks it as already taken.
			exists, err := s.repo.HasProgressOn(ctx, userID, m.ID, today)
			if err != nil {
				return earned, err
			}
			award = !exists
		}
		if !award {
			continue
		}

		progress := &model.MilestoneProgress{
			UserID:          userID,
			MilestoneID:     m.ID,
			StreakLength:    newStreakLength,
			EarnedAt:        now,
			EarnedOn:        today,
			RewardExpiresAt: rewardExpiry(m, now),
		}
		if err := s.repo.CreateProgress(ctx, progress); err != nil {
			return earned, err
		}

		earned = append(earned, dto.MilestoneEarned{
			ProgressID:      progress.ID,
			MilestoneID:     m.ID,
			DayNumber:       m.DayNumber,
			Name:            m.Name,
			RewardKind:      m.RewardKind,
			RewardPayload:   m.RewardPayload,
			RewardExpiresAt: progress.RewardExpiresAt,
		})

		s.notifyAward(ctx, userID, m, progress)
	}

	return earned, nil
}

// rewardExpiry returns when the reward lapses. Only trial rewards
// expire; everything else is kept until claimed.
func rewardExpiry(m model.Milestone, now time.Time) *time.Time {
	if m.RewardKind != model.RewardTrial || m.RewardPayload.TrialDays <= 0 {
		return nil
	}
	expires := now.AddDate(0, 0, m.RewardPayload.TrialDays)
	return &expires
}

// notifyAward is best-effort: a failed notification never unwinds the
// award itself.
func (s *milestoneService) notifyAward(ctx context.Context, userID uuid.UUID, m model.Milestone, progress *model.MilestoneProgress) {
	if s.notifications == nil {
		return
	}

	notification := &model.Notification{
		UserID:     userID,
		EntityID:   fmt.Sprintf("%d", progress.ID),
		EntityType: "milestone",
		Type:       "milestone_earned",
		Message:    fmt.Sprintf("%d-day streak! You earned: %s", m.DayNumber, m.Name),
	}
	if err := s.notifications.CreateNotification(ctx, notification); err != nil {
		log.Printf("Failed to send milestone notification to user %s: %v", userID, err)
	}
}

func (s *milestoneService) NextMilestone(ctx context.Context, userID uuid.UUID, currentStreak int) (*dto.NextMilestone, error) {
	catalog, err := s.repo.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	earnedIDs, err := s.repo.EarnedMilestoneIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	// Nearest future non-repeatable milestone not yet earned. The
	// catalog is ordered by day_number, so the first hit wins.
	for _, m := range catalog {
		if m.IsRepeatable || m.DayNumber <= currentStreak || earnedIDs[m.ID] {
			continue
		}
		return &dto.NextMilestone{
			DayNumber: m.DayNumber,
			Name:      m.Name,
			DaysAway:  m.DayNumber - currentStreak,
		}, nil
	}

	// None remain: next future occurrence of the nearest repeatable.
	var best *dto.NextMilestone
	for _, m := range catalog {
		if !m.IsRepeatable || m.RepeatInterval <= 0 {
			continue
		}
		next := m.DayNumber
		if currentStreak >= m.DayNumber {
			next = m.DayNumber + ((currentStreak-m.DayNumber)/m.RepeatInterval+1)*m.RepeatInterval
		}
		if best == nil || next < best.DayNumber {
			best = &dto.NextMilestone{
				DayNumber: next,
				Name:      m.Name,
				DaysAway:  next - currentStreak,
			}
		}
	}

	return best, nil
}

func (s *milestoneService) GetProgress(ctx context.Context, userID uuid.UUID) ([]model.MilestoneProgress, error) {
	return s.repo.GetProgressByUser(ctx, userID)
}

func (s *milestoneService) ClaimReward(ctx context.Context, userID uuid.UUID, progressID uint) (*model.MilestoneProgress, error) {
	return s.repo.ClaimReward(ctx, userID, progressID, s.clock.Now())
}
