package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"telegram-duel-bot/internal/arena"
	"telegram-duel-bot/internal/game/memory"
	"telegram-duel-bot/internal/game/rps"
	"telegram-duel-bot/internal/model"
)

var (
	alice = model.Player{ID: 1, DisplayName: "alice"}
	bob   = model.Player{ID: 2, DisplayName: "bob"}
)

func newTestSession(channelID int64) *arena.Session {
	return arena.NewSession(channelID, rps.New(alice, bob), alice, bob)
}

func TestPickTracker_PairsTwoTapsInSameSession(t *testing.T) {
	tracker := newPickTracker()
	s := newTestSession(42)
	key := pendingKey{ChannelID: 42, PlayerID: alice.ID}

	_, ready := tracker.Take(key, s, memory.Pos{Row: 0, Col: 0})
	assert.False(t, ready, "first tap only stores the pick")

	first, ready := tracker.Take(key, s, memory.Pos{Row: 1, Col: 1})
	assert.True(t, ready)
	assert.Equal(t, memory.Pos{Row: 0, Col: 0}, first)

	// The pair is consumed; the next tap starts over.
	_, ready = tracker.Take(key, s, memory.Pos{Row: 2, Col: 2})
	assert.False(t, ready)
}

func TestPickTracker_DropsPickFromPreviousSession(t *testing.T) {
	tracker := newPickTracker()
	key := pendingKey{ChannelID: 42, PlayerID: alice.ID}

	old := newTestSession(42)
	_, ready := tracker.Take(key, old, memory.Pos{Row: 0, Col: 0})
	assert.False(t, ready)

	// The game ends and a new one starts in the same channel. The stale
	// pick must not be paired with a tap on the fresh board.
	next := newTestSession(42)
	_, ready = tracker.Take(key, next, memory.Pos{Row: 1, Col: 1})
	assert.False(t, ready, "tap in a new session starts a fresh pair")

	first, ready := tracker.Take(key, next, memory.Pos{Row: 1, Col: 2})
	assert.True(t, ready)
	assert.Equal(t, memory.Pos{Row: 1, Col: 1}, first)
}

func TestPickTracker_PlayersTrackedIndependently(t *testing.T) {
	tracker := newPickTracker()
	s := newTestSession(42)
	aliceKey := pendingKey{ChannelID: 42, PlayerID: alice.ID}
	bobKey := pendingKey{ChannelID: 42, PlayerID: bob.ID}

	_, ready := tracker.Take(aliceKey, s, memory.Pos{Row: 0, Col: 0})
	assert.False(t, ready)

	_, ready = tracker.Take(bobKey, s, memory.Pos{Row: 0, Col: 1})
	assert.False(t, ready, "bob's tap must not complete alice's pair")

	first, ready := tracker.Take(aliceKey, s, memory.Pos{Row: 2, Col: 0})
	assert.True(t, ready)
	assert.Equal(t, memory.Pos{Row: 0, Col: 0}, first)
}
