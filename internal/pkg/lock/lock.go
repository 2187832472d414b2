// Package lock provides per-channel locking so every channel's game session
// sees at most one mutation at a time.
package lock

import (
	"errors"
	"sync"
)

// ErrLockTimeout is returned when a lock could not be acquired in time.
var ErrLockTimeout = errors.New("lock acquisition timeout")

// channelMutex wraps a mutex with reference counting for cleanup.
type channelMutex struct {
	mu       sync.Mutex
	refCount int
}

// ChannelLock serializes all session work for a channel: moves, end
// confirmations and AFK reaps for the same channel never interleave.
type ChannelLock struct {
	locks sync.Map // map[int64]*channelMutex
	pool  sync.Pool
}

// NewChannelLock creates a new ChannelLock instance.
func NewChannelLock() *ChannelLock {
	return &ChannelLock{
		pool: sync.Pool{
			New: func() any {
				return &channelMutex{}
			},
		},
	}
}

// getLock retrieves or creates a mutex for the given channel ID.
func (cl *ChannelLock) getLock(channelID int64) *channelMutex {
	if v, ok := cl.locks.Load(channelID); ok {
		return v.(*channelMutex)
	}

	newLock := cl.pool.Get().(*channelMutex)
	newLock.refCount = 0

	actual, loaded := cl.locks.LoadOrStore(channelID, newLock)
	if loaded {
		// Another goroutine created the lock first, return ours to pool.
		cl.pool.Put(newLock)
	}
	return actual.(*channelMutex)
}

// Lock acquires the lock for a channel.
func (cl *ChannelLock) Lock(channelID int64) {
	lock := cl.getLock(channelID)
	lock.mu.Lock()
	lock.refCount++
}

// Unlock releases the lock for a channel.
func (cl *ChannelLock) Unlock(channelID int64) {
	if v, ok := cl.locks.Load(channelID); ok {
		lock := v.(*channelMutex)
		lock.refCount--
		lock.mu.Unlock()
	}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false otherwise.
func (cl *ChannelLock) TryLock(channelID int64) bool {
	lock := cl.getLock(channelID)
	if lock.mu.TryLock() {
		lock.refCount++
		return true
	}
	return false
}

// WithLock executes a function while holding the channel's lock.
func (cl *ChannelLock) WithLock(channelID int64, fn func() error) error {
	cl.Lock(channelID)
	defer cl.Unlock(channelID)
	return fn()
}
