package service

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInProcessLockerSerializesSameSession(t *testing.T) {
	locker := NewInProcessLocker()

	var (
		mu      sync.Mutex
		active  int
		maxSeen int
		wg      sync.WaitGroup
	)

	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			release, err := locker.Acquire(context.Background(), "s1")
			require.NoError(t, err)
			defer release()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxSeen, "turns on one session must never overlap")
}

func TestInProcessLockerAllowsDifferentSessions(t *testing.T) {
	locker := NewInProcessLocker()

	releaseA, err := locker.Acquire(context.Background(), "a")
	require.NoError(t, err)
	defer releaseA()

	done := make(chan struct{})
	go func() {
		releaseB, err := locker.Acquire(context.Background(), "b")
		assert.NoError(t, err)
		releaseB()
		close(done)
	}()

	<-done // acquiring a different session never blocks on "a"
}

func TestInProcessLockerReleasesCleanly(t *testing.T) {
	locker := NewInProcessLocker()

	for i := 0; i < 3; i++ {
		release, err := locker.Acquire(context.Background(), "s1")
		require.NoError(t, err)
		release()
	}

	inner := locker.(*inProcessLocker)
	inner.mu.Lock()
	defer inner.mu.Unlock()
	assert.Empty(t, inner.locks, "released locks must not leak")
}
