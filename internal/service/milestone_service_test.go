package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/strideapp/stride-server/internal/model"
	"github.com/strideapp/stride-server/pkg/apperror"
)

func testCatalog() []model.Milestone {
	return []model.Milestone{
		{
			ID: 1, DayNumber: 3, Name: "Warming Up",
			RewardKind:    model.RewardCoins,
			RewardPayload: model.RewardPayload{CoinAmount: 50},
		},
		{
			ID: 2, DayNumber: 7, Name: "Week Strong",
			IsRepeatable: true, RepeatInterval: 7,
			RewardKind:    model.RewardCoins,
			RewardPayload: model.RewardPayload{CoinAmount: 100},
		},
		{
			ID: 3, DayNumber: 14, Name: "Fortnight Fire",
			RewardKind:    model.RewardTrial,
			RewardPayload: model.RewardPayload{TrialDays: 7},
		},
	}
}

func newMilestoneEnv() (*fakeMilestoneRepo, *stepClock, MilestoneService) {
	repo := newFakeMilestoneRepo(testCatalog()...)
	clock := &stepClock{t: time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)}
	svc := NewMilestoneService(repo, nil, clock)
	return repo, clock, svc
}

func TestNonRepeatableAwardedExactlyOnce(t *testing.T) {
	_, clock, svc := newMilestoneEnv()
	ctx := context.Background()
	userID := uuid.New()

	earned, err := svc.CheckAndAward(ctx, userID, 3, clock.today())
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, 3, earned[0].DayNumber)
	assert.Equal(t, model.RewardCoins, earned[0].RewardKind)
	assert.Equal(t, 50, earned[0].RewardPayload.CoinAmount)

	// Repeat call at the same length.
	earned, err = svc.CheckAndAward(ctx, userID, 3, clock.today())
	require.NoError(t, err)
	assert.Empty(t, earned)

	// Passing the threshold without landing on it.
	earned, err = svc.CheckAndAward(ctx, userID, 4, clock.today())
	require.NoError(t, err)
	assert.Empty(t, earned)

	// Reset and regrow back to 3 weeks later: still no second award.
	clock.advanceDays(21)
	earned, err = svc.CheckAndAward(ctx, userID, 3, clock.today())
	require.NoError(t, err)
	assert.Empty(t, earned)
}

func TestRepeatableAwardsAtEachInterval(t *testing.T) {
	repo, clock, svc := newMilestoneEnv()
	ctx := context.Background()
	userID := uuid.New()

	earned, err := svc.CheckAndAward(ctx, userID, 7, clock.today())
	require.NoError(t, err)
	require.Len(t, earned, 1)
	assert.Equal(t, 7, earned[0].DayNumber)

	// Off-interval lengths award nothing.
	clock.advanceDays(3)
	earned, err = svc.CheckAndAward(ctx, userID, 10, clock.today())
	require.NoError(t, err)
	assert.Empty(t, earned)

	// Day 14: the repeatable fires again and the non-repeatable at 14
	// fires for the first time.
	clock.advanceDays(4)
	earned, err = svc.CheckAndAward(ctx, userID, 14, clock.today())
	require.NoError(t, err)
	require.Len(t, earned, 2)

	days := []int{earned[0].DayNumber, earned[1].DayNumber}
	assert.ElementsMatch(t, []int{7, 14}, days)

	rows, err := repo.GetProgressByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestRepeatableOccurrenceGuardedPerDay(t *testing.T) {
	_, clock, svc := newMilestoneEnv()
	ctx := context.Background()
	userID := uuid.New()

	earned, err := svc.CheckAndAward(ctx, userID, 7, clock.today())
	require.NoError(t, err)
	require.Len(t, earned, 1)

	earned, err = svc.CheckAndAward(ctx, userID, 7, clock.today())
	require.NoError(t, err)
	assert.Empty(t, earned)
}

func TestTrialRewardGetsExpiration(t *testing.T) {
	_, clock, svc := newMilestoneEnv()
	ctx := context.Background()
	userID := uuid.New()

	earned, err := svc.CheckAndAward(ctx, userID, 14, clock.today())
	require.NoError(t, err)

	var trial *time.Time
	for _, e := range earned {
		if e.RewardKind == model.RewardTrial {
			trial = e.RewardExpiresAt
		}
	}
	require.NotNil(t, trial)
	assert.Equal(t, clock.t.AddDate(0, 0, 7), *trial)

	// Coin rewards never expire.
	for _, e := range earned {
		if e.RewardKind == model.RewardCoins {
			assert.Nil(t, e.RewardExpiresAt)
		}
	}
}

func TestNextMilestone(t *testing.T) {
	_, clock, svc := newMilestoneEnv()
	ctx := context.Background()
	userID := uuid.New()

	// Fresh user: nearest non-repeatable is day 3.
	next, err := svc.NextMilestone(ctx, userID, 0)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 3, next.DayNumber)
	assert.Equal(t, 3, next.DaysAway)

	// Day 3 earned: the next non-repeatable is 14, even though the
	// repeatable at 7 comes sooner.
	_, err = svc.CheckAndAward(ctx, userID, 3, clock.today())
	require.NoError(t, err)
	next, err = svc.NextMilestone(ctx, userID, 3)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 14, next.DayNumber)
	assert.Equal(t, 11, next.DaysAway)
}

func TestNextMilestoneFallsBackToRepeatable(t *testing.T) {
	_, clock, svc := newMilestoneEnv()
	ctx := context.Background()
	userID := uuid.New()

	_, err := svc.CheckAndAward(ctx, userID, 3, clock.today())
	require.NoError(t, err)
	clock.advanceDays(11)
	_, err = svc.CheckAndAward(ctx, userID, 14, clock.today())
	require.NoError(t, err)

	// All non-repeatables earned: next occurrence of the 7/7
	// repeatable past streak 20 is 21.
	next, err := svc.NextMilestone(ctx, userID, 20)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 21, next.DayNumber)
	assert.Equal(t, 1, next.DaysAway)

	// Below the repeatable's first threshold the threshold itself is
	// the next occurrence.
	next, err = svc.NextMilestone(ctx, userID, 5)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 7, next.DayNumber)
	assert.Equal(t, 2, next.DaysAway)
}

func TestClaimRewardExactlyOnce(t *testing.T) {
	_, clock, svc := newMilestoneEnv()
	ctx := context.Background()
	userID := uuid.New()

	earned, err := svc.CheckAndAward(ctx, userID, 3, clock.today())
	require.NoError(t, err)
	require.Len(t, earned, 1)

	claimed, err := svc.ClaimReward(ctx, userID, earned[0].ProgressID)
	require.NoError(t, err)
	assert.True(t, claimed.RewardClaimed)
	require.NotNil(t, claimed.RewardClaimedAt)

	_, err = svc.ClaimReward(ctx, userID, earned[0].ProgressID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}

func TestClaimRejectsExpiredTrial(t *testing.T) {
	_, clock, svc := newMilestoneEnv()
	ctx := context.Background()
	userID := uuid.New()

	earned, err := svc.CheckAndAward(ctx, userID, 14, clock.today())
	require.NoError(t, err)

	var trialProgressID uint
	for _, e := range earned {
		if e.RewardKind == model.RewardTrial {
			trialProgressID = e.ProgressID
		}
	}
	require.NotZero(t, trialProgressID)

	clock.advanceDays(8)
	_, err = svc.ClaimReward(ctx, userID, trialProgressID)
	assert.ErrorIs(t, err, apperror.ErrConflict)
}
