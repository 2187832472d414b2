// Package arena owns the live duel state: active sessions, pending
// challenges, pending end confirmations and the AFK reaper that sweeps idle
// sessions. The packages above it (dispatch, handler) never touch engine
// state except through a Session.
package arena

import (
	"sync"
	"time"

	"telegram-duel-bot/internal/game"
	"telegram-duel-bot/internal/model"
)

// Session binds one running game engine to a channel and its two players.
// The engine itself is a pure state machine; the Dispatcher serializes all
// engine calls per channel. Activity and finalization flags carry their own
// lock because the AFK reaper reads them from outside that serialization.
type Session struct {
	ChannelID int64
	Kind      model.GameKind
	Engine    game.Engine
	Player1   model.Player
	Player2   model.Player

	mu           sync.Mutex
	lastActivity time.Time
	finalized    bool
	recorded     bool
}

// NewSession creates a session with the activity clock set to now.
func NewSession(channelID int64, engine game.Engine, p1, p2 model.Player) *Session {
	return &Session{
		ChannelID:    channelID,
		Kind:         engine.Kind(),
		Engine:       engine,
		Player1:      p1,
		Player2:      p2,
		lastActivity: time.Now(),
	}
}

// Touch resets the activity clock. Called on every accepted player action.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// LastActivity returns the time of the last accepted player action.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// IdleFor reports how long the session has been without activity.
func (s *Session) IdleFor() time.Duration {
	return time.Since(s.LastActivity())
}

// Finalize marks the session terminal. Only the first caller gets true;
// persistence and terminal rendering happen exactly once off that result.
func (s *Session) Finalize() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finalized {
		return false
	}
	s.finalized = true
	return true
}

// Finalized reports whether the session has been finalized.
func (s *Session) Finalized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalized
}

// MarkRecorded notes that at least one result for this session reached the
// stats store. Rock Paper Scissors records per resolved round; the teardown
// paths use this to avoid writing a second, empty result.
func (s *Session) MarkRecorded() {
	s.mu.Lock()
	s.recorded = true
	s.mu.Unlock()
}

// Recorded reports whether any result was persisted for this session.
func (s *Session) Recorded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.recorded
}

// Has reports whether the player is one of the two participants.
func (s *Session) Has(playerID int64) bool {
	return playerID == s.Player1.ID || playerID == s.Player2.ID
}

// Opponent returns the other participant.
func (s *Session) Opponent(playerID int64) model.Player {
	if playerID == s.Player1.ID {
		return s.Player2
	}
	return s.Player1
}
