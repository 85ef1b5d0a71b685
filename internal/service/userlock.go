package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/strideapp/stride-server/pkg/apperror"
)

const (
	lockTTL        = 10 * time.Second
	lockRetryDelay = 50 * time.Millisecond
	lockRetries    = 40
)

// unlockScript deletes the lease only if we still own it.
var unlockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// UserLocker serializes streak mutation per user so two devices
// reporting the same day cannot race a read-modify-write. With Redis
// available the lease works across instances; without it a keyed mutex
// covers single-instance deployments. Local entries are reference
// counted and evicted once the last holder releases, so the map stays
// bounded by concurrent users rather than total users.
type UserLocker struct {
	rdb *redis.Client

	mu    sync.Mutex
	local map[uuid.UUID]*localLock
}

type localLock struct {
	mu   sync.Mutex
	refs int
}

func NewUserLocker(rdb *redis.Client) *UserLocker {
	return &UserLocker{
		rdb:   rdb,
		local: make(map[uuid.UUID]*localLock),
	}
}

// Lock acquires the per-user lock, returning the release func.
func (l *UserLocker) Lock(ctx context.Context, userID uuid.UUID) (func(), error) {
	if l.rdb == nil {
		return l.lockLocal(userID), nil
	}

	key := fmt.Sprintf("streak_lock:user:%s", userID.String())
	token := uuid.NewString()

	for i := 0; i < lockRetries; i++ {
		wasSet, err := l.rdb.SetNX(ctx, key, token, lockTTL).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire streak lock in redis: %w", err)
		}
		if wasSet {
			return func() {
				unlockScript.Run(context.Background(), l.rdb, []string{key}, token)
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockRetryDelay):
		}
	}

	return nil, apperror.ErrConflict
}

func (l *UserLocker) lockLocal(userID uuid.UUID) func() {
	l.mu.Lock()
	entry, ok := l.local[userID]
	if !ok {
		entry = &localLock{}
		l.local[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.local, userID)
		}
		l.mu.Unlock()
	}
}
