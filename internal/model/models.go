// Package model defines the data models shared across the duel bot.
package model

import "time"

// Player is an immutable reference to a chat user taking part in a game.
// The bot only ever stores the id and display name; the chat platform owns
// the rest of the identity.
type Player struct {
	ID          int64
	DisplayName string
}

// GameKind tags the game a session or result belongs to.
type GameKind string

const (
	KindMemory    GameKind = "memory"
	KindTicTacToe GameKind = "tictactoe"
	KindRPS       GameKind = "rps"
	KindRPSAction GameKind = "rps_action"
)

// GameResult is the single tagged result type every engine produces on a
// terminal transition. WinnerID is nil for a tie (and for reaped sessions).
type GameResult struct {
	Kind      GameKind
	ChannelID int64
	Player1   Player
	Player2   Player
	WinnerID  *int64
	Score1    int
	Score2    int
}

// Winner returns the winning player and true, or false for a tie.
func (r *GameResult) Winner() (Player, bool) {
	if r.WinnerID == nil {
		return Player{}, false
	}
	if *r.WinnerID == r.Player1.ID {
		return r.Player1, true
	}
	return r.Player2, true
}

// Loser returns the losing player and true, or false for a tie.
func (r *GameResult) Loser() (Player, bool) {
	if r.WinnerID == nil {
		return Player{}, false
	}
	if *r.WinnerID == r.Player1.ID {
		return r.Player2, true
	}
	return r.Player1, true
}

// PlayerStats is one leaderboard row from the player_stats table.
type PlayerStats struct {
	UserID   int64     `db:"user_id"`
	Username string    `db:"username"`
	GameKind GameKind  `db:"game_kind"`
	Wins     int64     `db:"wins"`
	Losses   int64     `db:"losses"`
	Updated  time.Time `db:"updated_at"`
}

// WinRate returns the win percentage in [0,100], 0 when no games were played.
func (s *PlayerStats) WinRate() float64 {
	total := s.Wins + s.Losses
	if total == 0 {
		return 0
	}
	return float64(s.Wins) / float64(total) * 100
}
