package arena

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ReapFunc finalizes one idle session: terminal rendering, persistence and
// registry removal. A session whose channel vanished must still be removed.
type ReapFunc func(ctx context.Context, s *Session) error

// Reaper sweeps sessions whose players went silent for longer than the
// threshold. One reaper runs per bot process.
type Reaper struct {
	sessions  *SessionRegistry
	interval  time.Duration
	threshold time.Duration
	backoff   time.Duration
	reap      ReapFunc
}

// NewReaper creates a reaper that checks every interval and reaps sessions
// idle for longer than threshold.
func NewReaper(sessions *SessionRegistry, interval, threshold time.Duration, reap ReapFunc) *Reaper {
	return &Reaper{
		sessions:  sessions,
		interval:  interval,
		threshold: threshold,
		backoff:   time.Second,
		reap:      reap,
	}
}

// Run loops until the context is canceled. A failed reap never aborts the
// loop; it is logged and the tick continues after a short backoff.
func (r *Reaper) Run(ctx context.Context) {
	log.Info().
		Dur("interval", r.interval).
		Dur("threshold", r.threshold).
		Msg("AFK reaper started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("AFK reaper stopped")
			return
		case <-ticker.C:
			r.Tick(ctx)
		}
	}
}

// Tick sweeps all live sessions once.
func (r *Reaper) Tick(ctx context.Context) {
	for _, s := range r.sessions.Snapshot() {
		idle := s.IdleFor()
		if idle <= r.threshold {
			continue
		}

		log.Info().
			Int64("channel_id", s.ChannelID).
			Str("game", string(s.Kind)).
			Dur("idle", idle).
			Msg("reaping idle session")

		if err := r.reap(ctx, s); err != nil {
			log.Error().
				Err(err).
				Int64("channel_id", s.ChannelID).
				Msg("failed to reap session")
			select {
			case <-ctx.Done():
				return
			case <-time.After(r.backoff):
			}
		}
	}
}
