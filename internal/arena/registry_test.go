package arena

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-duel-bot/internal/game"
	"telegram-duel-bot/internal/model"
)

var (
	alice = model.Player{ID: 1, DisplayName: "alice"}
	bob   = model.Player{ID: 2, DisplayName: "bob"}
	carol = model.Player{ID: 3, DisplayName: "carol"}
)

// fakeEngine satisfies game.Engine for tests that never move.
type fakeEngine struct {
	kind model.GameKind
	over bool
}

func (f *fakeEngine) Kind() model.GameKind { return f.kind }
func (f *fakeEngine) Over() bool           { return f.over }
func (f *fakeEngine) Result(channelID int64) *model.GameResult {
	return &model.GameResult{Kind: f.kind, ChannelID: channelID}
}

func newTestSession(channelID int64) *Session {
	return NewSession(channelID, &fakeEngine{kind: model.KindTicTacToe}, alice, bob)
}

func TestSessionRegistry_OnePerChannel(t *testing.T) {
	r := NewSessionRegistry()

	require.NoError(t, r.TryCreate(newTestSession(10)))
	assert.ErrorIs(t, r.TryCreate(newTestSession(10)), game.ErrAlreadyActive)
	require.NoError(t, r.TryCreate(newTestSession(11)), "other channels are independent")

	s, ok := r.Get(10)
	require.True(t, ok)
	assert.Equal(t, int64(10), s.ChannelID)
	assert.Equal(t, 2, r.Count())
}

func TestSessionRegistry_RemoveIdempotent(t *testing.T) {
	r := NewSessionRegistry()
	require.NoError(t, r.TryCreate(newTestSession(10)))

	r.Remove(10)
	assert.False(t, r.Active(10))
	r.Remove(10) // second removal is a no-op
	r.Remove(99) // unknown channel too

	// The slot is free again.
	assert.NoError(t, r.TryCreate(newTestSession(10)))
}

// TestSessionRegistry_ConcurrentTryCreate checks the atomic check-and-insert:
// many goroutines racing on one channel, exactly one wins.
func TestSessionRegistry_ConcurrentTryCreate(t *testing.T) {
	r := NewSessionRegistry()

	const racers = 50
	var wins int64
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			if err := r.TryCreate(newTestSession(10)); err == nil {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins)
	assert.Equal(t, 1, r.Count())
}

func TestSession_FinalizeOnce(t *testing.T) {
	s := newTestSession(10)

	const racers = 20
	var wins int64
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func() {
			defer wg.Done()
			if s.Finalize() {
				atomic.AddInt64(&wins, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(1), wins, "exactly one caller finalizes")
	assert.True(t, s.Finalized())
}

func TestSession_Participants(t *testing.T) {
	s := newTestSession(10)

	assert.True(t, s.Has(alice.ID))
	assert.True(t, s.Has(bob.ID))
	assert.False(t, s.Has(carol.ID))
	assert.Equal(t, bob.ID, s.Opponent(alice.ID).ID)
	assert.Equal(t, alice.ID, s.Opponent(bob.ID).ID)
}

func TestSession_Touch(t *testing.T) {
	s := newTestSession(10)
	before := s.LastActivity()
	s.Touch()
	assert.False(t, s.LastActivity().Before(before))
}
