package service

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionLocker serializes turns per session id. Two concurrent turns on the
// same session would race the node transition; everything else is free to
// run in parallel.
type SessionLocker interface {
	Acquire(ctx context.Context, sessionID string) (release func(), err error)
}

// inProcessLocker is the single-replica implementation: one mutex per
// session id, dropped once no turn holds or waits on it.
type inProcessLocker struct {
	mu    sync.Mutex
	locks map[string]*sessionLock
}

type sessionLock struct {
	mu      sync.Mutex
	waiters int
}

func NewInProcessLocker() SessionLocker {
	return &inProcessLocker{locks: make(map[string]*sessionLock)}
}

func (l *inProcessLocker) Acquire(ctx context.Context, sessionID string) (func(), error) {
	l.mu.Lock()
	lock, ok := l.locks[sessionID]
	if !ok {
		lock = &sessionLock{}
		l.locks[sessionID] = lock
	}
	lock.waiters++
	l.mu.Unlock()

	lock.mu.Lock()

	return func() {
		lock.mu.Unlock()
		l.mu.Lock()
		lock.waiters--
		if lock.waiters == 0 {
			delete(l.locks, sessionID)
		}
		l.mu.Unlock()
	}, nil
}

const (
	redisLockTTL       = 5 * time.Minute
	redisLockPollEvery = 100 * time.Millisecond
)

// redisLocker serializes turns across replicas with SET NX. The TTL guards
// against a crashed holder keeping the session stuck forever.
type redisLocker struct {
	client *redis.Client
}

func NewRedisLocker(client *redis.Client) SessionLocker {
	return &redisLocker{client: client}
}

func (l *redisLocker) Acquire(ctx context.Context, sessionID string) (func(), error) {
	key := "mentor:session_lock:" + sessionID

	for {
		ok, err := l.client.SetNX(ctx, key, "1", redisLockTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				l.client.Del(context.Background(), key)
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(redisLockPollEvery):
		}
	}
}
