// Package dispatch routes user actions into the arena: it resolves the
// relevant challenge, confirmation or session, invokes the engine transition
// under the channel's lock, and reflects the outcome through the rendering
// and persistence collaborators.
package dispatch

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"telegram-duel-bot/internal/arena"
	"telegram-duel-bot/internal/config"
	"telegram-duel-bot/internal/game"
	"telegram-duel-bot/internal/game/memory"
	"telegram-duel-bot/internal/game/rps"
	"telegram-duel-bot/internal/model"
	"telegram-duel-bot/internal/pkg/lock"
	"telegram-duel-bot/internal/pkg/timer"
)

// Dispatch-level rejections, on top of the shared game taxonomy.
var (
	ErrUnknownGame   = errors.New("unknown game command")
	ErrSelfChallenge = errors.New("cannot challenge yourself")
	ErrNoActiveGame  = errors.New("no active game in this channel")
	ErrWrongGameKind = errors.New("action does not apply to this game")
	ErrGameStillLive = errors.New("game is still in progress")
)

// ChallengeEvent says how a pending challenge went away.
type ChallengeEvent int

const (
	ChallengeAccepted ChallengeEvent = iota
	ChallengeDeclined
	ChallengeExpired
	ChallengeCancelled
)

// ConfirmationEvent says how a pending end confirmation went away.
type ConfirmationEvent int

const (
	ConfirmationConfirmed ConfirmationEvent = iota
	ConfirmationRejected
	ConfirmationExpired
)

// EndReason says why a session terminated.
type EndReason int

const (
	// EndedPlayed means the game reached a terminal state through play.
	EndedPlayed EndReason = iota
	// EndedMutual means both players agreed to stop early.
	EndedMutual
	// EndedReaped means the AFK reaper swept an idle session.
	EndedReaped
)

// Renderer reflects arena state changes back into the chat channel. The
// dispatcher treats it as an opaque collaborator; render failures never roll
// back engine state.
type Renderer interface {
	ChallengeCreated(ctx context.Context, ch *arena.Challenge) error
	ChallengeResolved(ctx context.Context, ch *arena.Challenge, ev ChallengeEvent) error
	SessionStarted(ctx context.Context, s *arena.Session) error
	BoardUpdated(ctx context.Context, s *arena.Session) error
	MemoryReveal(ctx context.Context, s *arena.Session, out *memory.Outcome, a, b memory.Pos) error
	RPSRoundResolved(ctx context.Context, s *arena.Session, out *rps.Outcome, gifURL string) error
	ConfirmationCreated(ctx context.Context, c *arena.Confirmation) error
	ConfirmationResolved(ctx context.Context, c *arena.Confirmation, ev ConfirmationEvent) error
	SessionEnded(ctx context.Context, s *arena.Session, res *model.GameResult, reason EndReason) error
}

// Recorder persists terminated game results. *repository.StatsRepository
// satisfies it.
type Recorder interface {
	RecordResult(ctx context.Context, res *model.GameResult) error
}

// GIFProvider looks up a cosmetic GIF for an RPS action. A nil provider or
// a lookup failure just drops the GIF from the render.
type GIFProvider interface {
	Lookup(ctx context.Context, action string) (string, error)
}

// Dispatcher is the single serialized entry point for everything that
// mutates a channel's game state.
type Dispatcher struct {
	games         *game.Registry
	sessions      *arena.SessionRegistry
	challenges    *arena.ChallengeManager
	confirmations *arena.ConfirmationManager
	locks         *lock.ChannelLock
	sched         timer.Scheduler

	render   Renderer
	recorder Recorder
	gifs     GIFProvider

	revealDelay time.Duration
}

// New wires a dispatcher. The challenge and confirmation managers are built
// here so their expiry callbacks loop back into the dispatcher.
func New(games *game.Registry, render Renderer, recorder Recorder, gifs GIFProvider, sched timer.Scheduler, cfg config.GamesConfig) *Dispatcher {
	d := &Dispatcher{
		games:       games,
		sessions:    arena.NewSessionRegistry(),
		locks:       lock.NewChannelLock(),
		sched:       sched,
		render:      render,
		recorder:    recorder,
		gifs:        gifs,
		revealDelay: cfg.Memory.RevealDelay,
	}
	d.challenges = arena.NewChallengeManager(d.sessions, sched, cfg.ChallengeTimeout, d.onChallengeExpired)
	d.confirmations = arena.NewConfirmationManager(sched, cfg.ConfirmationTimeout, d.onConfirmationExpired)
	return d
}

// Sessions exposes the registry for the AFK reaper.
func (d *Dispatcher) Sessions() *arena.SessionRegistry { return d.sessions }

// Challenge issues a game invitation from challenger to target.
func (d *Dispatcher) Challenge(ctx context.Context, challenger, target model.Player, channelID int64, command string, params game.Params) (*arena.Challenge, error) {
	if challenger.ID == target.ID {
		return nil, ErrSelfChallenge
	}
	desc, ok := d.games.Get(command)
	if !ok {
		return nil, ErrUnknownGame
	}

	ch, err := d.challenges.Create(challenger, target, channelID, desc.Kind, params)
	if err != nil {
		return nil, err
	}

	log.Info().
		Int64("channel_id", channelID).
		Int64("challenger_id", challenger.ID).
		Int64("target_id", target.ID).
		Str("game", string(desc.Kind)).
		Msg("challenge created")

	if err := d.render.ChallengeCreated(ctx, ch); err != nil {
		log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to render challenge")
	}
	return ch, nil
}

// AcceptChallenge resolves the target's pending challenge into a running
// session. The loser of the accept/expiry race gets ErrAlreadyResolved.
func (d *Dispatcher) AcceptChallenge(ctx context.Context, targetID, channelID int64) (*arena.Session, error) {
	var session *arena.Session
	err := d.locks.WithLock(channelID, func() error {
		ch, err := d.challenges.Resolve(targetID, channelID)
		if err != nil {
			return err
		}

		desc, ok := d.games.GetKind(ch.Kind)
		if !ok {
			return game.ErrUnknownEngineState
		}
		engine, err := desc.New(ch.Challenger, ch.Target, ch.Params)
		if err != nil {
			return err
		}

		s := arena.NewSession(channelID, engine, ch.Challenger, ch.Target)
		if err := d.sessions.TryCreate(s); err != nil {
			return err
		}
		session = s

		log.Info().
			Int64("channel_id", channelID).
			Str("game", string(ch.Kind)).
			Msg("game started")

		if err := d.render.ChallengeResolved(ctx, ch, ChallengeAccepted); err != nil {
			log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to render challenge accept")
		}
		if err := d.render.SessionStarted(ctx, s); err != nil {
			log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to render session start")
		}
		return nil
	})
	return session, err
}

// DeclineChallenge resolves the target's pending challenge as declined.
func (d *Dispatcher) DeclineChallenge(ctx context.Context, targetID, channelID int64) error {
	ch, err := d.challenges.Resolve(targetID, channelID)
	if err != nil {
		return err
	}
	if err := d.render.ChallengeResolved(ctx, ch, ChallengeDeclined); err != nil {
		log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to render challenge decline")
	}
	return nil
}

// CancelChallenge withdraws the challenger's own pending invitation.
func (d *Dispatcher) CancelChallenge(ctx context.Context, challengerID, targetID, channelID int64) error {
	ch, err := d.challenges.Cancel(challengerID, targetID, channelID)
	if err != nil {
		return err
	}
	if err := d.render.ChallengeResolved(ctx, ch, ChallengeCancelled); err != nil {
		log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to render challenge cancel")
	}
	return nil
}

// onChallengeExpired fires from the expiry timer after the manager already
// removed the entry.
func (d *Dispatcher) onChallengeExpired(ch *arena.Challenge) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().
		Int64("channel_id", ch.Key.ChannelID).
		Int64("target_id", ch.Key.TargetID).
		Msg("challenge expired")

	if err := d.render.ChallengeResolved(ctx, ch, ChallengeExpired); err != nil {
		log.Error().Err(err).Int64("channel_id", ch.Key.ChannelID).Msg("failed to render challenge expiry")
	}
}

// onConfirmationExpired fires from the expiry timer; the session plays on.
func (d *Dispatcher) onConfirmationExpired(c *arena.Confirmation) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	log.Info().
		Int64("channel_id", c.ChannelID).
		Str("confirmation_id", c.ID.String()).
		Msg("end confirmation expired")

	if err := d.render.ConfirmationResolved(ctx, c, ConfirmationExpired); err != nil {
		log.Error().Err(err).Int64("channel_id", c.ChannelID).Msg("failed to render confirmation expiry")
	}
}

// RequestEnd asks the requester's opponent whether the game may stop early.
func (d *Dispatcher) RequestEnd(ctx context.Context, requesterID, channelID int64) (*arena.Confirmation, error) {
	var conf *arena.Confirmation
	err := d.locks.WithLock(channelID, func() error {
		s, ok := d.sessions.Get(channelID)
		if !ok {
			return ErrNoActiveGame
		}
		if !s.Has(requesterID) {
			return game.ErrNotInGame
		}

		requester := s.Player1
		if requesterID == s.Player2.ID {
			requester = s.Player2
		}
		c, err := d.confirmations.Create(channelID, requester, s.Opponent(requesterID))
		if err != nil {
			return err
		}
		conf = c
		s.Touch()

		if err := d.render.ConfirmationCreated(ctx, c); err != nil {
			log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to render confirmation")
		}
		return nil
	})
	return conf, err
}

// ResolveConfirmation answers a pending end confirmation. Only the opponent
// named on it may answer. Accept finalizes the session before the
// confirmation is considered done; Decline leaves the game running.
func (d *Dispatcher) ResolveConfirmation(ctx context.Context, id uuid.UUID, playerID int64, decision arena.Decision) error {
	c, ok := d.confirmations.Get(id)
	if !ok {
		return game.ErrAlreadyResolved
	}
	if playerID != c.Opponent.ID {
		return game.ErrUnknownUser
	}

	return d.locks.WithLock(c.ChannelID, func() error {
		c, err := d.confirmations.Resolve(id)
		if err != nil {
			return err
		}

		if decision == arena.Decline {
			if err := d.render.ConfirmationResolved(ctx, c, ConfirmationRejected); err != nil {
				log.Error().Err(err).Int64("channel_id", c.ChannelID).Msg("failed to render confirmation decline")
			}
			return nil
		}

		if err := d.render.ConfirmationResolved(ctx, c, ConfirmationConfirmed); err != nil {
			log.Error().Err(err).Int64("channel_id", c.ChannelID).Msg("failed to render confirmation accept")
		}

		s, ok := d.sessions.Get(c.ChannelID)
		if !ok {
			return ErrNoActiveGame
		}
		d.finishLocked(ctx, s, EndedMutual)
		return nil
	})
}

// Reap finalizes one idle session on behalf of the AFK reaper.
func (d *Dispatcher) Reap(ctx context.Context, s *arena.Session) error {
	return d.locks.WithLock(s.ChannelID, func() error {
		cur, ok := d.sessions.Get(s.ChannelID)
		if !ok || cur != s {
			// Already gone through another path.
			return nil
		}
		d.finishLocked(ctx, s, EndedReaped)
		return nil
	})
}

// finishLocked tears a session down exactly once: finalize, persist, drop
// any pending confirmation, remove from the registry, render the end.
// Caller holds the channel lock.
func (d *Dispatcher) finishLocked(ctx context.Context, s *arena.Session, reason EndReason) {
	if !s.Finalize() {
		return
	}

	res := s.Engine.Result(s.ChannelID)
	d.record(ctx, s, res)

	d.confirmations.DropChannel(s.ChannelID)
	d.sessions.Remove(s.ChannelID)

	log.Info().
		Int64("channel_id", s.ChannelID).
		Str("game", string(s.Kind)).
		Int("reason", int(reason)).
		Msg("session ended")

	if err := d.render.SessionEnded(ctx, s, res, reason); err != nil {
		log.Error().Err(err).Int64("channel_id", s.ChannelID).Msg("failed to render session end")
	}
}

// record persists a result best-effort. Sessions that already wrote a
// per-round result (RPS rematch streaks) are not written again on teardown.
func (d *Dispatcher) record(ctx context.Context, s *arena.Session, res *model.GameResult) {
	if s.Recorded() {
		return
	}
	if err := d.recorder.RecordResult(ctx, res); err != nil {
		log.Error().
			Err(err).
			Int64("channel_id", s.ChannelID).
			Str("game", string(res.Kind)).
			Msg("failed to record game result")
		return
	}
	s.MarkRecorded()
}
