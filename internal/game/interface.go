// Package game defines the engine contract shared by all duel games and the
// registry that maps chat commands onto them.
package game

import (
	"errors"

	"telegram-duel-bot/internal/model"
)

// Rejection taxonomy shared by every engine and manager. Engines return these
// as typed results; nothing past the engine boundary panics or throws.
var (
	ErrNotYourTurn        = errors.New("not your turn")
	ErrInvalidPosition    = errors.New("invalid position")
	ErrAlreadyResolved    = errors.New("already resolved")
	ErrAlreadyActive      = errors.New("channel already has an active game")
	ErrChannelUnreachable = errors.New("channel unreachable")
	ErrUnknownEngineState = errors.New("unknown engine state")
	ErrUnknownUser        = errors.New("unknown user")
	ErrGameOver           = errors.New("game is already over")
	ErrNotInGame          = errors.New("player is not part of this game")
)

// Params carries the kind-specific settings a challenge was issued with.
type Params struct {
	Category string // Memory Match emoji category ("" = random)
	Rows     int    // Memory Match grid rows
	Cols     int    // Memory Match grid columns
}

// Engine is implemented by every duel game. Engines are pure state machines:
// no I/O, no locking; the session owner serializes access.
type Engine interface {
	// Kind returns the game kind tag used for results and routing.
	Kind() model.GameKind

	// Over reports whether the engine has reached a terminal state.
	Over() bool

	// Result builds the terminal result for persistence. Only meaningful
	// once Over returns true; the winner is nil for a tie.
	Result(channelID int64) *model.GameResult
}

// Descriptor describes a registered game kind and how to start it.
type Descriptor struct {
	Kind        model.GameKind
	Name        string // display name, e.g. "Memory Match"
	Command     string // chat command that challenges with this game
	Description string
	New         func(p1, p2 model.Player, params Params) (Engine, error)
}
