package arena

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"telegram-duel-bot/internal/game"
	"telegram-duel-bot/internal/model"
	"telegram-duel-bot/internal/pkg/timer"
)

// Decision is a player's answer to a pending challenge or confirmation.
type Decision int

const (
	Accept Decision = iota
	Decline
)

// ChallengeKey identifies a pending challenge: one per target per channel.
type ChallengeKey struct {
	TargetID  int64
	ChannelID int64
}

// Challenge is a pending game invitation awaiting the target's decision or
// its expiry timer, whichever comes first.
type Challenge struct {
	ID         uuid.UUID
	Key        ChallengeKey
	Challenger model.Player
	Target     model.Player
	Kind       model.GameKind
	Params     game.Params
	CreatedAt  time.Time

	expiry timer.Handle
}

// ChallengeManager tracks pending challenges and races their expiry timers
// against explicit accept/decline/cancel. Whichever side acts first removes
// the entry; the loser observes ErrAlreadyResolved and does nothing.
type ChallengeManager struct {
	mu    sync.Mutex
	byKey map[ChallengeKey]*Challenge

	sessions *SessionRegistry
	sched    timer.Scheduler
	timeout  time.Duration
	onExpire func(*Challenge)
}

// NewChallengeManager creates a manager. onExpire runs outside the manager
// lock whenever a challenge times out unanswered; nil is allowed.
func NewChallengeManager(sessions *SessionRegistry, sched timer.Scheduler, timeout time.Duration, onExpire func(*Challenge)) *ChallengeManager {
	return &ChallengeManager{
		byKey:    make(map[ChallengeKey]*Challenge),
		sessions: sessions,
		sched:    sched,
		timeout:  timeout,
		onExpire: onExpire,
	}
}

// Create registers a challenge and starts its expiry timer. It conflicts
// when the target already has a pending challenge in the channel, or the
// channel already runs a game.
func (m *ChallengeManager) Create(challenger, target model.Player, channelID int64, kind model.GameKind, params game.Params) (*Challenge, error) {
	key := ChallengeKey{TargetID: target.ID, ChannelID: channelID}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.byKey[key]; exists {
		return nil, game.ErrAlreadyActive
	}
	// Session check runs outside the channel's dispatch lock: a challenge
	// slipping in while an accept is mid-flight is fine, since that
	// challenge's own accept later fails at the registry's TryCreate.
	if m.sessions.Active(channelID) {
		return nil, game.ErrAlreadyActive
	}

	ch := &Challenge{
		ID:         uuid.New(),
		Key:        key,
		Challenger: challenger,
		Target:     target,
		Kind:       kind,
		Params:     params,
		CreatedAt:  time.Now(),
	}
	m.byKey[key] = ch
	ch.expiry = m.sched.After(m.timeout, func() { m.expire(ch) })
	return ch, nil
}

// Get returns the pending challenge for the target in the channel.
func (m *ChallengeManager) Get(targetID, channelID int64) (*Challenge, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.byKey[ChallengeKey{TargetID: targetID, ChannelID: channelID}]
	return ch, ok
}

// Resolve removes the target's pending challenge and cancels its timer.
// A challenge already expired or resolved yields ErrAlreadyResolved.
func (m *ChallengeManager) Resolve(targetID, channelID int64) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ChallengeKey{TargetID: targetID, ChannelID: channelID}
	ch, ok := m.byKey[key]
	if !ok {
		return nil, game.ErrAlreadyResolved
	}
	delete(m.byKey, key)
	ch.expiry.Cancel()
	return ch, nil
}

// Cancel withdraws the challenger's own pending challenge against target.
func (m *ChallengeManager) Cancel(challengerID, targetID, channelID int64) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := ChallengeKey{TargetID: targetID, ChannelID: channelID}
	ch, ok := m.byKey[key]
	if !ok || ch.Challenger.ID != challengerID {
		return nil, game.ErrAlreadyResolved
	}
	delete(m.byKey, key)
	ch.expiry.Cancel()
	return ch, nil
}

// expire is the timer callback. It only removes the exact challenge it was
// armed for; a same-key challenge created later is left alone.
func (m *ChallengeManager) expire(ch *Challenge) {
	m.mu.Lock()
	cur, ok := m.byKey[ch.Key]
	if !ok || cur.ID != ch.ID {
		m.mu.Unlock()
		return
	}
	delete(m.byKey, ch.Key)
	m.mu.Unlock()

	if m.onExpire != nil {
		m.onExpire(ch)
	}
}

// Count returns the number of pending challenges.
func (m *ChallengeManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byKey)
}
