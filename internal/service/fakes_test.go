package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/strideapp/stride-server/internal/model"
	"github.com/strideapp/stride-server/pkg/apperror"
	"gorm.io/gorm"
)

// In-memory repository fakes. They mirror the conditional-write
// behavior of the real postgres layer (version guard, monotonic
// qualifies merge) so the services can be tested against the same
// contract they run on in production.

type stepClock struct {
	t time.Time
}

func (c *stepClock) Now() time.Time { return c.t }

func (c *stepClock) advanceDays(n int) { c.t = c.t.AddDate(0, 0, n) }

// today is the clock's UTC calendar date.
func (c *stepClock) today() string { return c.t.Format("2006-01-02") }

type fakeStreakRepo struct {
	mu        sync.Mutex
	rows      map[uuid.UUID]model.UserStreak
	updateErr error
}

func newFakeStreakRepo() *fakeStreakRepo {
	return &fakeStreakRepo{rows: make(map[uuid.UUID]model.UserStreak)}
}

func (r *fakeStreakRepo) GetOrCreate(ctx context.Context, userID uuid.UUID, defaultTimezone string) (*model.UserStreak, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[userID]
	if !ok {
		row = model.UserStreak{UserID: userID, Timezone: defaultTimezone}
		r.rows[userID] = row
	}
	cp := row
	return &cp, nil
}

func (r *fakeStreakRepo) Get(ctx context.Context, userID uuid.UUID) (*model.UserStreak, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := row
	return &cp, nil
}

func (r *fakeStreakRepo) Update(ctx context.Context, streak *model.UserStreak) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.rows[streak.UserID]
	if !ok || current.Version != streak.Version {
		return apperror.ErrConflict
	}
	stored := *streak
	// The timezone column is owned by SetTimezone, never by Update.
	stored.Timezone = current.Timezone
	stored.Version++
	r.rows[streak.UserID] = stored
	streak.Version++
	return nil
}

func (r *fakeStreakRepo) SetTimezone(ctx context.Context, userID uuid.UUID, zone string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[userID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	row.Timezone = zone
	r.rows[userID] = row
	return nil
}

// seed replaces the stored row outside the version protocol.
func (r *fakeStreakRepo) seed(streak model.UserStreak) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows[streak.UserID] = streak
}

type fakeActivityRepo struct {
	mu        sync.Mutex
	rows      map[string]model.ActivityLog
	recordErr error
}

func newFakeActivityRepo() *fakeActivityRepo {
	return &fakeActivityRepo{rows: make(map[string]model.ActivityLog)}
}

func activityKey(userID uuid.UUID, date string) string {
	return userID.String() + "|" + date
}

func (r *fakeActivityRepo) RecordActivity(ctx context.Context, entry *model.ActivityLog) (bool, error) {
	if r.recordErr != nil {
		return false, r.recordErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := activityKey(entry.UserID, entry.ActivityDate)
	existing, ok := r.rows[key]
	if !ok {
		r.rows[key] = *entry
		return false, nil
	}
	wasAlreadyQualifying := existing.Qualifies
	existing.ActivityKind = entry.ActivityKind
	existing.ActivityValue = entry.ActivityValue
	existing.Source = entry.Source
	existing.Qualifies = existing.Qualifies || entry.Qualifies
	r.rows[key] = existing
	return wasAlreadyQualifying, nil
}

func (r *fakeActivityRepo) GetByDate(ctx context.Context, userID uuid.UUID, date string) (*model.ActivityLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.rows[activityKey(userID, date)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := entry
	return &cp, nil
}

type fakeUserRepo struct {
	users map[uuid.UUID]model.User
}

func newFakeUserRepo(users ...model.User) *fakeUserRepo {
	repo := &fakeUserRepo{users: make(map[uuid.UUID]model.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *fakeUserRepo) Create(ctx context.Context, user *model.User) error {
	r.users[user.ID] = *user
	return nil
}

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	user, ok := r.users[uid]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := user
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			cp := user
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeMilestoneRepo struct {
	mu        sync.Mutex
	catalog   []model.Milestone
	progress  []model.MilestoneProgress
	nextID    uint
	createErr error
}

func newFakeMilestoneRepo(catalog ...model.Milestone) *fakeMilestoneRepo {
	sorted := make([]model.Milestone, len(catalog))
	copy(sorted, catalog)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].DayNumber < sorted[j].DayNumber })
	return &fakeMilestoneRepo{catalog: sorted, nextID: 1}
}

func (r *fakeMilestoneRepo) GetCatalog(ctx context.Context) ([]model.Milestone, error) {
	return r.catalog, nil
}

func (r *fakeMilestoneRepo) GetCatalogUpTo(ctx context.Context, dayNumber int) ([]model.Milestone, error) {
	var out []model.Milestone
	for _, m := range r.catalog {
		if m.DayNumber <= dayNumber {
			out = append(out, m)
		}
	}
	return out, nil
}

func (r *fakeMilestoneRepo) HasProgress(ctx context.Context, userID uuid.UUID, milestoneID uint) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.progress {
		if p.UserID == userID && p.MilestoneID == milestoneID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMilestoneRepo) HasProgressOn(ctx context.Context, userID uuid.UUID, milestoneID uint, earnedOn string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.progress {
		if p.UserID == userID && p.MilestoneID == milestoneID && p.EarnedOn == earnedOn {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeMilestoneRepo) CreateProgress(ctx context.Context, progress *model.MilestoneProgress) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	progress.ID = r.nextID
	r.nextID++
	r.progress = append(r.progress, *progress)
	return nil
}

func (r *fakeMilestoneRepo) GetProgressByUser(ctx context.Context, userID uuid.UUID) ([]model.MilestoneProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.MilestoneProgress
	for _, p := range r.progress {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *fakeMilestoneRepo) EarnedMilestoneIDs(ctx context.Context, userID uuid.UUID) (map[uint]bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	earned := make(map[uint]bool)
	for _, p := range r.progress {
		if p.UserID == userID {
			earned[p.MilestoneID] = true
		}
	}
	return earned, nil
}

func (r *fakeMilestoneRepo) ClaimReward(ctx context.Context, userID uuid.UUID, progressID uint, now time.Time) (*model.MilestoneProgress, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.progress {
		p := &r.progress[i]
		if p.ID != progressID || p.UserID != userID {
			continue
		}
		if p.RewardClaimed {
			return nil, apperror.ErrConflict
		}
		if p.RewardExpiresAt != nil && !p.RewardExpiresAt.After(now) {
			return nil, apperror.ErrConflict
		}
		p.RewardClaimed = true
		claimedAt := now
		p.RewardClaimedAt = &claimedAt
		cp := *p
		return &cp, nil
	}
	return nil, apperror.ErrConflict
}
