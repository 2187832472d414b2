package arena

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"telegram-duel-bot/internal/game"
	"telegram-duel-bot/internal/model"
	"telegram-duel-bot/internal/pkg/timer"
)

// Confirmation is a pending "end the game?" question: the requester asked,
// the opponent must agree before the session is finalized early.
type Confirmation struct {
	ID        uuid.UUID
	ChannelID int64
	Requester model.Player
	Opponent  model.Player
	CreatedAt time.Time

	expiry timer.Handle
}

// ConfirmationManager tracks pending end confirmations, one per channel at
// most. Expiry races explicit resolution first-wins, same as challenges.
type ConfirmationManager struct {
	mu        sync.Mutex
	byID      map[uuid.UUID]*Confirmation
	byChannel map[int64]uuid.UUID

	sched    timer.Scheduler
	timeout  time.Duration
	onExpire func(*Confirmation)
}

// NewConfirmationManager creates a manager. onExpire runs outside the
// manager lock when a confirmation times out unanswered; nil is allowed.
func NewConfirmationManager(sched timer.Scheduler, timeout time.Duration, onExpire func(*Confirmation)) *ConfirmationManager {
	return &ConfirmationManager{
		byID:      make(map[uuid.UUID]*Confirmation),
		byChannel: make(map[int64]uuid.UUID),
		sched:     sched,
		timeout:   timeout,
		onExpire:  onExpire,
	}
}

// Create registers a confirmation for the channel and starts its expiry
// timer. A channel with a live confirmation conflicts.
func (m *ConfirmationManager) Create(channelID int64, requester, opponent model.Player) (*Confirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byChannel[channelID]; exists {
		return nil, game.ErrAlreadyActive
	}

	c := &Confirmation{
		ID:        uuid.New(),
		ChannelID: channelID,
		Requester: requester,
		Opponent:  opponent,
		CreatedAt: time.Now(),
	}
	m.byID[c.ID] = c
	m.byChannel[channelID] = c.ID
	c.expiry = m.sched.After(m.timeout, func() { m.expire(c) })
	return c, nil
}

// Get returns a pending confirmation by id.
func (m *ConfirmationManager) Get(id uuid.UUID) (*Confirmation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.byID[id]
	return c, ok
}

// GetByChannel returns the channel's pending confirmation, if any.
func (m *ConfirmationManager) GetByChannel(channelID int64) (*Confirmation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byChannel[channelID]
	if !ok {
		return nil, false
	}
	c, ok := m.byID[id]
	return c, ok
}

// Resolve removes the confirmation and cancels its timer. An expired or
// already-answered confirmation yields ErrAlreadyResolved; the caller then
// takes no further action. On Accept the caller finalizes the session while
// still holding the channel's dispatch lock.
func (m *ConfirmationManager) Resolve(id uuid.UUID) (*Confirmation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.byID[id]
	if !ok {
		return nil, game.ErrAlreadyResolved
	}
	m.remove(c)
	c.expiry.Cancel()
	return c, nil
}

// DropChannel removes the channel's pending confirmation, if any. Used when
// the session ends through another path (AFK reap, natural game end).
func (m *ConfirmationManager) DropChannel(channelID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id, ok := m.byChannel[channelID]
	if !ok {
		return
	}
	c := m.byID[id]
	m.remove(c)
	c.expiry.Cancel()
}

func (m *ConfirmationManager) expire(c *Confirmation) {
	m.mu.Lock()
	cur, ok := m.byID[c.ID]
	if !ok || cur != c {
		m.mu.Unlock()
		return
	}
	m.remove(c)
	m.mu.Unlock()

	if m.onExpire != nil {
		m.onExpire(c)
	}
}

// remove drops the entry from both indexes. Caller holds the lock.
func (m *ConfirmationManager) remove(c *Confirmation) {
	delete(m.byID, c.ID)
	delete(m.byChannel, c.ChannelID)
}

// Count returns the number of pending confirmations.
func (m *ConfirmationManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}
