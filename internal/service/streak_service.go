package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
	"github.com/redis/go-redis/v9"
	"github.com/strideapp/stride-server/internal/dto"
	"github.com/strideapp/stride-server/internal/model"
	"github.com/strideapp/stride-server/internal/repository"
	"github.com/strideapp/stride-server/internal/timeutil"
	"github.com/strideapp/stride-server/pkg/apperror"
	"gorm.io/gorm"
)

const (
	SourceUnknown = "unknown"

	statusCacheTTL = 5 * time.Minute
)

type StreakService interface {
	// LogActivity records a per-day activity report and, when the
	// report makes today newly qualifying, advances the streak.
	LogActivity(ctx context.Context, userID uuid.UUID, req dto.LogActivityRequest) (*dto.LogActivityResponse, error)
	// ReprocessStreak retries streak processing for a day that is
	// already logged, without re-logging anything.
	ReprocessStreak(ctx context.Context, userID uuid.UUID) (*dto.LogActivityResponse, error)
	GetStatus(ctx context.Context, userID uuid.UUID) (*dto.StreakStatus, error)
	UpdateTimezone(ctx context.Context, userID uuid.UUID, zone string) error
}

type streakService struct {
	streakRepo   repository.StreakRepository
	activityRepo repository.ActivityRepository
	userRepo     repository.UserRepository
	milestones   MilestoneService
	locker       *UserLocker
	redisClient  *redis.Client
	clock        timeutil.Clock
	defaultZone  string
	sanitizer    *bluemonday.Policy
}

func NewStreakService(
	streakRepo repository.StreakRepository,
	activityRepo repository.ActivityRepository,
	userRepo repository.UserRepository,
	milestones MilestoneService,
	locker *UserLocker,
	redisClient *redis.Client,
	clock timeutil.Clock,
	defaultZone string,
) StreakService {
	if !timeutil.ValidZone(defaultZone) {
		defaultZone = "UTC"
	}
	return &streakService{
		streakRepo:   streakRepo,
		activityRepo: activityRepo,
		userRepo:     userRepo,
		milestones:   milestones,
		locker:       locker,
		redisClient:  redisClient,
		clock:        clock,
		defaultZone:  defaultZone,
		sanitizer:    bluemonday.StrictPolicy(),
	}
}

func (s *streakService) LogActivity(ctx context.Context, userID uuid.UUID, req dto.LogActivityRequest) (*dto.LogActivityResponse, error) {
	if !KnownKind(req.ActivityKind) {
		return nil, apperror.New(400, "unknown activity_kind", apperror.ErrInvalidInput)
	}
	if req.ActivityValue == nil || *req.ActivityValue < 0 {
		return nil, apperror.New(400, "activity_value must be >= 0", apperror.ErrInvalidInput)
	}
	if req.OverrideDate != "" {
		if _, err := timeutil.ParseDate(req.OverrideDate); err != nil {
			return nil, apperror.New(400, err.Error(), apperror.ErrInvalidInput)
		}
	}
	value := *req.ActivityValue

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	streak, err := s.streakRepo.GetOrCreate(ctx, userID, s.defaultZone)
	if err != nil {
		return nil, err
	}

	zone := streak.Timezone
	if req.OverrideTimezone != "" {
		if timeutil.ValidZone(req.OverrideTimezone) {
			zone = req.OverrideTimezone
		} else {
			log.Printf("Ignoring invalid timezone override %q for user %s", req.OverrideTimezone, userID)
		}
	}

	today := timeutil.Today(s.clock, zone)
	activityDate := today
	if req.OverrideDate != "" {
		activityDate = req.OverrideDate
	}

	qualifies := Qualifies(req.ActivityKind, value)

	entry := &model.ActivityLog{
		UserID:        userID,
		ActivityDate:  activityDate,
		ActivityKind:  req.ActivityKind,
		ActivityValue: value,
		Qualifies:     qualifies,
		Source:        s.sanitizeSource(req.Source),
	}
	wasAlreadyQualifying, err := s.activityRepo.RecordActivity(ctx, entry)
	if err != nil {
		// Logging failed: nothing was recorded, fail the request.
		return nil, err
	}

	resp := &dto.LogActivityResponse{
		ActivityLogged:           true,
		ActivityDate:             activityDate,
		QualifiesForStreak:       qualifies,
		WasNewQualifyingActivity: qualifies && !wasAlreadyQualifying,
	}

	// The streak only moves when this call makes *today* newly
	// qualifying. Repeats and historical backfills return the current
	// state untouched.
	if !resp.WasNewQualifyingActivity || activityDate != today {
		s.attachSnapshot(ctx, resp, streak)
		return resp, nil
	}

	status, err := s.processStreak(ctx, streak, today)
	resp.StreakStatus = status
	if err != nil {
		resp.Error = err.Error()
		return resp, nil
	}
	resp.StreakProcessed = true
	return resp, nil
}

func (s *streakService) ReprocessStreak(ctx context.Context, userID uuid.UUID) (*dto.LogActivityResponse, error) {
	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer unlock()

	streak, err := s.streakRepo.GetOrCreate(ctx, userID, s.defaultZone)
	if err != nil {
		return nil, err
	}

	today := timeutil.Today(s.clock, streak.Timezone)
	resp := &dto.LogActivityResponse{ActivityDate: today}

	entry, err := s.activityRepo.GetByDate(ctx, userID, today)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.attachSnapshot(ctx, resp, streak)
			return resp, nil
		}
		return nil, err
	}

	resp.QualifiesForStreak = entry.Qualifies
	if !entry.Qualifies {
		s.attachSnapshot(ctx, resp, streak)
		return resp, nil
	}

	status, err := s.processStreak(ctx, streak, today)
	resp.StreakStatus = status
	if err != nil {
		resp.Error = err.Error()
		return resp, nil
	}
	resp.StreakProcessed = true
	return resp, nil
}

// processStreak runs weekly shield maintenance and then the transition
// machine for a qualifying activity on today. The caller must hold the
// per-user lock. The returned status may be non-nil alongside an error
// when the streak advanced but milestone awarding failed.
func (s *streakService) processStreak(ctx context.Context, streak *model.UserStreak, today string) (*dto.StreakStatus, error) {
	user, err := s.userRepo.FindByID(ctx, streak.UserID.String())
	if err != nil {
		return nil, fmt.Errorf("resolve subscription tier: %w", err)
	}
	EnsureWeeklyWindow(streak, model.ShieldCapForTier(user.SubscriptionTier), today)

	yesterday := timeutil.PrevDate(today)
	status := &dto.StreakStatus{MilestonesEarned: []dto.MilestoneEarned{}}

	advanced := false
	switch {
	case streak.LastActivityDate != nil && *streak.LastActivityDate == today:
		// Already processed today. Repeated and concurrent calls land
		// here and change nothing.
	case streak.LastActivityDate == nil:
		s.restartStreak(streak)
		status.StreakStarted = true
		advanced = true
	case *streak.LastActivityDate == yesterday:
		streak.CurrentStreak++
		status.StreakContinued = true
		advanced = true
	default:
		if timeutil.DaysBetween(*streak.LastActivityDate, today) == 2 && streak.ShieldsAvailable > 0 {
			// One shield bridges exactly one missed day. Longer gaps
			// always break, no matter the balance.
			streak.ShieldsAvailable--
			streak.ShieldsUsedWeek++
			streak.CurrentStreak++
			status.ShieldUsed = true
			status.StreakContinued = true
		} else {
			s.restartStreak(streak)
			status.StreakBroken = true
		}
		advanced = true
	}

	if advanced {
		if streak.CurrentStreak > streak.LongestStreak {
			streak.LongestStreak = streak.CurrentStreak
		}
		streak.TotalActiveDays++
		date := today
		streak.LastActivityDate = &date
	}

	if err := s.streakRepo.Update(ctx, streak); err != nil {
		return nil, fmt.Errorf("persist streak: %w", err)
	}
	s.invalidateStatusCache(ctx, streak.UserID)

	status.CurrentStreak = streak.CurrentStreak
	status.LongestStreak = streak.LongestStreak
	status.ShieldsRemaining = streak.ShieldsAvailable
	status.TotalActiveDays = streak.TotalActiveDays

	var milestoneErr error
	if advanced {
		earned, err := s.milestones.CheckAndAward(ctx, streak.UserID, streak.CurrentStreak, today)
		if earned != nil {
			status.MilestonesEarned = earned
		}
		if err != nil {
			// The streak advancement stands; awards are re-checkable
			// later from the persisted streak length.
			log.Printf("Milestone awarding failed for user %s at streak %d: %v", streak.UserID, streak.CurrentStreak, err)
			milestoneErr = fmt.Errorf("milestone award: %w", err)
		}
	}

	next, err := s.milestones.NextMilestone(ctx, streak.UserID, streak.CurrentStreak)
	if err != nil {
		log.Printf("Next-milestone lookup failed for user %s: %v", streak.UserID, err)
	} else {
		status.NextMilestone = next
	}

	return status, milestoneErr
}

func (s *streakService) restartStreak(streak *model.UserStreak) {
	now := s.clock.Now()
	streak.CurrentStreak = 1
	streak.StreakStartedAt = &now
}

func (s *streakService) GetStatus(ctx context.Context, userID uuid.UUID) (*dto.StreakStatus, error) {
	if cached := s.getCachedStatus(ctx, userID); cached != nil {
		return cached, nil
	}

	streak, err := s.streakRepo.Get(ctx, userID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		streak = &model.UserStreak{UserID: userID, Timezone: s.defaultZone}
	}

	status := s.snapshot(ctx, streak)
	s.setCachedStatus(ctx, userID, status)
	return status, nil
}

func (s *streakService) UpdateTimezone(ctx context.Context, userID uuid.UUID, zone string) error {
	if !timeutil.ValidZone(zone) {
		return apperror.New(400, "unknown IANA timezone", apperror.ErrInvalidInput)
	}

	unlock, err := s.locker.Lock(ctx, userID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := s.streakRepo.GetOrCreate(ctx, userID, s.defaultZone); err != nil {
		return err
	}
	if err := s.streakRepo.SetTimezone(ctx, userID, zone); err != nil {
		return err
	}
	s.invalidateStatusCache(ctx, userID)
	return nil
}

// snapshot builds a read-only status: all transition flags false.
func (s *streakService) snapshot(ctx context.Context, streak *model.UserStreak) *dto.StreakStatus {
	status := &dto.StreakStatus{
		CurrentStreak:    streak.CurrentStreak,
		LongestStreak:    streak.LongestStreak,
		ShieldsRemaining: streak.ShieldsAvailable,
		TotalActiveDays:  streak.TotalActiveDays,
		MilestonesEarned: []dto.MilestoneEarned{},
	}
	next, err := s.milestones.NextMilestone(ctx, streak.UserID, streak.CurrentStreak)
	if err != nil {
		log.Printf("Next-milestone lookup failed for user %s: %v", streak.UserID, err)
	} else {
		status.NextMilestone = next
	}
	return status
}

func (s *streakService) attachSnapshot(ctx context.Context, resp *dto.LogActivityResponse, streak *model.UserStreak) {
	resp.StreakStatus = s.snapshot(ctx, streak)
}

func (s *streakService) sanitizeSource(source string) string {
	cleaned := strings.TrimSpace(s.sanitizer.Sanitize(source))
	if cleaned == "" {
		return SourceUnknown
	}
	return cleaned
}

func statusCacheKey(userID uuid.UUID) string {
	return fmt.Sprintf("streak_status:user:%s", userID.String())
}

func (s *streakService) getCachedStatus(ctx context.Context, userID uuid.UUID) *dto.StreakStatus {
	if s.redisClient == nil {
		return nil
	}
	payload, err := s.redisClient.Get(ctx, statusCacheKey(userID)).Bytes()
	if err != nil {
		return nil
	}
	var status dto.StreakStatus
	if err := json.Unmarshal(payload, &status); err != nil {
		return nil
	}
	return &status
}

func (s *streakService) setCachedStatus(ctx context.Context, userID uuid.UUID, status *dto.StreakStatus) {
	if s.redisClient == nil {
		return
	}
	payload, err := json.Marshal(status)
	if err != nil {
		return
	}
	s.redisClient.Set(ctx, statusCacheKey(userID), payload, statusCacheTTL)
}

func (s *streakService) invalidateStatusCache(ctx context.Context, userID uuid.UUID) {
	if s.redisClient == nil {
		return
	}
	s.redisClient.Del(ctx, statusCacheKey(userID))
}
