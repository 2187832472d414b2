package dispatch

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"telegram-duel-bot/internal/arena"
	"telegram-duel-bot/internal/game"
	"telegram-duel-bot/internal/game/memory"
	"telegram-duel-bot/internal/game/rps"
	"telegram-duel-bot/internal/game/tictactoe"
)

// SelectPair flips two Memory Match cards for the player.
func (d *Dispatcher) SelectPair(ctx context.Context, playerID, channelID int64, a, b memory.Pos) (*memory.Outcome, error) {
	var outcome *memory.Outcome
	err := d.locks.WithLock(channelID, func() error {
		s, engine, err := sessionEngine[*memory.Game](d, channelID)
		if err != nil {
			return err
		}

		out, err := engine.SelectPair(playerID, a, b)
		if err != nil {
			return err
		}
		outcome = out
		s.Touch()

		if err := d.render.MemoryReveal(ctx, s, out, a, b); err != nil {
			log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to render pair reveal")
		}

		if out.GameOver {
			d.finishLocked(ctx, s, EndedPlayed)
			return nil
		}

		if len(out.Hidden) > 0 {
			// Let both players see the miss before the cards flip back.
			d.sched.After(d.revealDelay, func() { d.rehide(s) })
		} else if err := d.render.BoardUpdated(ctx, s); err != nil {
			log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to render board")
		}
		return nil
	})
	return outcome, err
}

// rehide redraws the board after the reveal delay, unless the session ended
// in the meantime.
func (d *Dispatcher) rehide(s *arena.Session) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = d.locks.WithLock(s.ChannelID, func() error {
		cur, ok := d.sessions.Get(s.ChannelID)
		if !ok || cur != s {
			return nil
		}
		if err := d.render.BoardUpdated(ctx, s); err != nil {
			log.Error().Err(err).Int64("channel_id", s.ChannelID).Msg("failed to render board")
		}
		return nil
	})
}

// Place puts the player's Tic Tac Toe mark at (row, col).
func (d *Dispatcher) Place(ctx context.Context, playerID, channelID int64, row, col int) (*tictactoe.Outcome, error) {
	var outcome *tictactoe.Outcome
	err := d.locks.WithLock(channelID, func() error {
		s, engine, err := sessionEngine[*tictactoe.Game](d, channelID)
		if err != nil {
			return err
		}

		out, err := engine.Place(playerID, row, col)
		if err != nil {
			return err
		}
		outcome = out
		s.Touch()

		if out.Result == tictactoe.Placed {
			if err := d.render.BoardUpdated(ctx, s); err != nil {
				log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to render board")
			}
			return nil
		}
		d.finishLocked(ctx, s, EndedPlayed)
		return nil
	})
	return outcome, err
}

// SubmitAction pre-commits the player's RPS Action move.
func (d *Dispatcher) SubmitAction(ctx context.Context, playerID, channelID int64, action string) error {
	return d.locks.WithLock(channelID, func() error {
		s, engine, err := sessionEngine[*rps.Game](d, channelID)
		if err != nil {
			return err
		}

		if err := engine.SubmitAction(playerID, action); err != nil {
			return err
		}
		s.Touch()

		if err := d.render.BoardUpdated(ctx, s); err != nil {
			log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to render action state")
		}
		return nil
	})
}

// SubmitChoice records the player's RPS throw. When it resolves the round,
// the result is persisted and a rematch offer is rendered; the session stays
// up until a player leaves or the reaper takes it.
func (d *Dispatcher) SubmitChoice(ctx context.Context, playerID, channelID int64, choice rps.Choice) (*rps.Outcome, error) {
	var outcome *rps.Outcome
	err := d.locks.WithLock(channelID, func() error {
		s, engine, err := sessionEngine[*rps.Game](d, channelID)
		if err != nil {
			return err
		}

		out, err := engine.SubmitChoice(playerID, choice)
		if err != nil {
			return err
		}
		s.Touch()

		if out == nil {
			// First throw in; show the waiting state.
			if err := d.render.BoardUpdated(ctx, s); err != nil {
				log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to render waiting state")
			}
			return nil
		}
		outcome = out

		// Per-round persistence: a resolved round is a finished game in
		// the stats model, even if the pair rematches afterwards.
		res := engine.Result(channelID)
		if err := d.recorder.RecordResult(ctx, res); err != nil {
			log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to record round result")
		} else {
			s.MarkRecorded()
		}

		gifURL := d.lookupGIF(ctx, out)
		if err := d.render.RPSRoundResolved(ctx, s, out, gifURL); err != nil {
			log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to render round result")
		}
		return nil
	})
	return outcome, err
}

// Rematch resets a resolved RPS round in place for another one.
func (d *Dispatcher) Rematch(ctx context.Context, playerID, channelID int64) error {
	return d.locks.WithLock(channelID, func() error {
		s, engine, err := sessionEngine[*rps.Game](d, channelID)
		if err != nil {
			return err
		}
		if !s.Has(playerID) {
			return game.ErrNotInGame
		}
		if !engine.Over() {
			return ErrGameStillLive
		}

		engine.Reset()
		s.Touch()

		log.Info().
			Int64("channel_id", channelID).
			Int64("player_id", playerID).
			Msg("rps rematch")

		if err := d.render.BoardUpdated(ctx, s); err != nil {
			log.Error().Err(err).Int64("channel_id", channelID).Msg("failed to render rematch")
		}
		return nil
	})
}

// Leave lets a player close a resolved RPS session instead of rematching.
func (d *Dispatcher) Leave(ctx context.Context, playerID, channelID int64) error {
	return d.locks.WithLock(channelID, func() error {
		s, engine, err := sessionEngine[*rps.Game](d, channelID)
		if err != nil {
			return err
		}
		if !s.Has(playerID) {
			return game.ErrNotInGame
		}
		if !engine.Over() {
			return ErrGameStillLive
		}

		d.finishLocked(ctx, s, EndedPlayed)
		return nil
	})
}

// lookupGIF fetches the action GIF for a decided Action round, best effort.
func (d *Dispatcher) lookupGIF(ctx context.Context, out *rps.Outcome) string {
	if d.gifs == nil || out.Action == "" {
		return ""
	}
	url, err := d.gifs.Lookup(ctx, out.Action)
	if err != nil {
		log.Warn().Err(err).Str("action", out.Action).Msg("gif lookup failed")
		return ""
	}
	return url
}

// sessionEngine fetches the channel's session and asserts its engine type.
func sessionEngine[E any](d *Dispatcher, channelID int64) (*arena.Session, E, error) {
	var zero E
	s, ok := d.sessions.Get(channelID)
	if !ok {
		return nil, zero, ErrNoActiveGame
	}
	engine, ok := s.Engine.(E)
	if !ok {
		return nil, zero, ErrWrongGameKind
	}
	return s, engine, nil
}
