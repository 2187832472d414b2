package arena

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-duel-bot/internal/game"
	"telegram-duel-bot/internal/model"
	"telegram-duel-bot/internal/pkg/timer"
)

const challengeTimeout = time.Minute

func newChallengeFixture(onExpire func(*Challenge)) (*ChallengeManager, *SessionRegistry, *timer.Manual) {
	sched := timer.NewManual()
	sessions := NewSessionRegistry()
	m := NewChallengeManager(sessions, sched, challengeTimeout, onExpire)
	return m, sessions, sched
}

func TestChallengeCreate_Conflicts(t *testing.T) {
	m, sessions, _ := newChallengeFixture(nil)

	_, err := m.Create(alice, bob, 10, model.KindTicTacToe, game.Params{})
	require.NoError(t, err)

	// Same target, same channel conflicts even for a different challenger.
	_, err = m.Create(carol, bob, 10, model.KindMemory, game.Params{})
	assert.ErrorIs(t, err, game.ErrAlreadyActive)

	// Same target in another channel is fine.
	_, err = m.Create(alice, bob, 11, model.KindTicTacToe, game.Params{})
	require.NoError(t, err)

	// A channel with a running game rejects new challenges outright.
	require.NoError(t, sessions.TryCreate(newTestSession(12)))
	_, err = m.Create(alice, carol, 12, model.KindRPS, game.Params{})
	assert.ErrorIs(t, err, game.ErrAlreadyActive)
}

func TestChallengeResolve_CancelsExpiry(t *testing.T) {
	expired := 0
	m, _, sched := newChallengeFixture(func(*Challenge) { expired++ })

	created, err := m.Create(alice, bob, 10, model.KindMemory, game.Params{Category: "food"})
	require.NoError(t, err)
	assert.Equal(t, 1, sched.Pending())

	ch, err := m.Resolve(bob.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, created.ID, ch.ID)
	assert.Equal(t, "food", ch.Params.Category)
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, 0, sched.Pending(), "resolve cancels the expiry timer")

	// The timer firing late must be a no-op.
	sched.Advance(2 * challengeTimeout)
	assert.Equal(t, 0, expired)

	// The losing side of the race observes not-found.
	_, err = m.Resolve(bob.ID, 10)
	assert.ErrorIs(t, err, game.ErrAlreadyResolved)
}

func TestChallengeExpire_FirstWins(t *testing.T) {
	var expired []*Challenge
	m, _, sched := newChallengeFixture(func(c *Challenge) { expired = append(expired, c) })

	created, err := m.Create(alice, bob, 10, model.KindRPS, game.Params{})
	require.NoError(t, err)

	sched.Advance(challengeTimeout)
	require.Len(t, expired, 1)
	assert.Equal(t, created.ID, expired[0].ID)
	assert.Equal(t, 0, m.Count())

	// An accept arriving after expiry loses the race.
	_, err = m.Resolve(bob.ID, 10)
	assert.ErrorIs(t, err, game.ErrAlreadyResolved)
}

func TestChallengeExpire_IgnoresReplacement(t *testing.T) {
	var expired []*Challenge
	m, _, sched := newChallengeFixture(func(c *Challenge) { expired = append(expired, c) })

	first, err := m.Create(alice, bob, 10, model.KindRPS, game.Params{})
	require.NoError(t, err)

	// Resolve the first challenge just before its deadline, then issue a
	// fresh one under the same key.
	sched.Advance(challengeTimeout - time.Second)
	_, err = m.Resolve(bob.ID, 10)
	require.NoError(t, err)

	second, err := m.Create(carol, bob, 10, model.KindMemory, game.Params{})
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	// Crossing the first deadline must not touch the replacement.
	sched.Advance(2 * time.Second)
	assert.Empty(t, expired)
	assert.Equal(t, 1, m.Count())

	sched.Advance(challengeTimeout)
	require.Len(t, expired, 1)
	assert.Equal(t, second.ID, expired[0].ID)
}

func TestChallengeCancel(t *testing.T) {
	m, _, sched := newChallengeFixture(nil)

	_, err := m.Create(alice, bob, 10, model.KindTicTacToe, game.Params{})
	require.NoError(t, err)

	// Only the challenger may withdraw.
	_, err = m.Cancel(carol.ID, bob.ID, 10)
	assert.ErrorIs(t, err, game.ErrAlreadyResolved)
	assert.Equal(t, 1, m.Count())

	ch, err := m.Cancel(alice.ID, bob.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, ch.Challenger.ID)
	assert.Equal(t, 0, m.Count())
	assert.Equal(t, 0, sched.Pending())
}

func TestChallengeGet(t *testing.T) {
	m, _, _ := newChallengeFixture(nil)

	_, ok := m.Get(bob.ID, 10)
	assert.False(t, ok)

	created, err := m.Create(alice, bob, 10, model.KindTicTacToe, game.Params{})
	require.NoError(t, err)

	got, ok := m.Get(bob.ID, 10)
	require.True(t, ok)
	assert.Equal(t, created.ID, got.ID)
}
