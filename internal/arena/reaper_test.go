package arena

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func backdate(s *Session, d time.Duration) {
	s.mu.Lock()
	s.lastActivity = time.Now().Add(-d)
	s.mu.Unlock()
}

func TestReaperTick_ReapsOnlyIdleSessions(t *testing.T) {
	r := NewSessionRegistry()
	idle := newTestSession(10)
	fresh := newTestSession(11)
	require.NoError(t, r.TryCreate(idle))
	require.NoError(t, r.TryCreate(fresh))
	backdate(idle, 5*time.Minute)

	var reaped []int64
	reaper := NewReaper(r, 10*time.Second, 3*time.Minute, func(_ context.Context, s *Session) error {
		reaped = append(reaped, s.ChannelID)
		r.Remove(s.ChannelID)
		return nil
	})

	reaper.Tick(context.Background())

	assert.Equal(t, []int64{10}, reaped)
	assert.False(t, r.Active(10))
	assert.True(t, r.Active(11))
}

func TestReaperTick_ContinuesAfterError(t *testing.T) {
	r := NewSessionRegistry()
	for _, ch := range []int64{10, 11, 12} {
		s := newTestSession(ch)
		require.NoError(t, r.TryCreate(s))
		backdate(s, time.Hour)
	}

	var attempts []int64
	reaper := NewReaper(r, 10*time.Second, 3*time.Minute, func(_ context.Context, s *Session) error {
		attempts = append(attempts, s.ChannelID)
		if s.ChannelID == 11 {
			return errors.New("channel unreachable")
		}
		r.Remove(s.ChannelID)
		return nil
	})
	reaper.backoff = time.Millisecond

	reaper.Tick(context.Background())

	assert.Len(t, attempts, 3, "one failure must not abort the sweep")
	assert.True(t, r.Active(11), "failed reap leaves the session for the next tick")
	assert.False(t, r.Active(10))
	assert.False(t, r.Active(12))
}

func TestReaperRun_StopsOnContextCancel(t *testing.T) {
	r := NewSessionRegistry()
	reaper := NewReaper(r, time.Millisecond, time.Minute, func(context.Context, *Session) error {
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reaper.Run(ctx)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reaper did not stop on context cancellation")
	}
}
