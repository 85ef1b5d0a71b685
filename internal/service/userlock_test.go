package service

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalLockSerializesPerUser(t *testing.T) {
	locker := NewUserLocker(nil)
	userID := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := locker.Lock(context.Background(), userID)
			if !assert.NoError(t, err) {
				return
			}
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 16, counter)

	locker.mu.Lock()
	defer locker.mu.Unlock()
	assert.Empty(t, locker.local, "released entries must not accumulate")
}

func TestLocalLockEntriesEvictedOnRelease(t *testing.T) {
	locker := NewUserLocker(nil)
	a := uuid.New()
	b := uuid.New()

	unlockA, err := locker.Lock(context.Background(), a)
	require.NoError(t, err)
	unlockB, err := locker.Lock(context.Background(), b)
	require.NoError(t, err)

	locker.mu.Lock()
	held := len(locker.local)
	locker.mu.Unlock()
	assert.Equal(t, 2, held)

	unlockA()
	unlockB()

	locker.mu.Lock()
	defer locker.mu.Unlock()
	assert.Empty(t, locker.local)
}
