package arena

import (
	"sync"

	"telegram-duel-bot/internal/game"
)

// SessionRegistry tracks the single active session per channel. The
// check-and-insert in TryCreate is atomic, so two racing challenges can
// never both start a game in one channel.
type SessionRegistry struct {
	mu       sync.RWMutex
	sessions map[int64]*Session
}

// NewSessionRegistry creates an empty registry.
func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		sessions: make(map[int64]*Session),
	}
}

// TryCreate inserts the session unless its channel already has one.
func (r *SessionRegistry) TryCreate(s *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.sessions[s.ChannelID]; exists {
		return game.ErrAlreadyActive
	}
	r.sessions[s.ChannelID] = s
	return nil
}

// Get returns the channel's active session, if any.
func (r *SessionRegistry) Get(channelID int64) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[channelID]
	return s, ok
}

// Active reports whether the channel has a live session.
func (r *SessionRegistry) Active(channelID int64) bool {
	_, ok := r.Get(channelID)
	return ok
}

// Remove drops the channel's session. Removing an absent channel is a no-op,
// so the two racing paths that tear a session down (explicit end vs. reap)
// can both call it.
func (r *SessionRegistry) Remove(channelID int64) {
	r.mu.Lock()
	delete(r.sessions, channelID)
	r.mu.Unlock()
}

// Snapshot returns the current sessions. The slice is a copy; the reaper
// iterates it without holding the registry lock.
func (r *SessionRegistry) Snapshot() []*Session {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, s)
	}
	return out
}

// Count returns the number of live sessions.
func (r *SessionRegistry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
