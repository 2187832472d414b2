// Package rps implements Rock Paper Scissors and its Action variant, where
// the winner performs a pre-committed action on the loser.
package rps

import (
	"errors"
	"math/rand"

	"telegram-duel-bot/internal/game"
	"telegram-duel-bot/internal/model"
)

// Choice is one of the three throws.
type Choice string

const (
	Rock     Choice = "rock"
	Paper    Choice = "paper"
	Scissors Choice = "scissors"
)

// Choices lists all valid throws.
var Choices = []Choice{Rock, Paper, Scissors}

// Emojis maps each throw to its display symbol.
var Emojis = map[Choice]string{
	Rock:     "🪨",
	Paper:    "📄",
	Scissors: "✂️",
}

// beats maps each throw to the throw it defeats.
var beats = map[Choice]Choice{
	Rock:     Scissors,
	Paper:    Rock,
	Scissors: Paper,
}

// Beats reports whether a defeats b.
func Beats(a, b Choice) bool {
	return beats[a] == b
}

// Actions lists the cosmetic actions a player can pre-commit in the Action
// variant. The winner's action is applied to the loser.
var Actions = []string{
	"slap", "kiss", "nuke", "laugh", "pat", "hug",
	"poke", "tickle", "bonk", "punch", "dance with",
}

// ValidChoice reports whether c is a known throw.
func ValidChoice(c Choice) bool {
	_, ok := beats[c]
	return ok
}

// ValidAction reports whether a is a known cosmetic action.
func ValidAction(a string) bool {
	for _, known := range Actions {
		if known == a {
			return true
		}
	}
	return false
}

// State is the round's phase.
type State int

const (
	// WaitingForActions is the Action variant's opening phase: both players
	// pre-commit an action before any throw is allowed.
	WaitingForActions State = iota
	// WaitingForChoices means throws are open and the round resolves the
	// instant the second one lands.
	WaitingForChoices
	// Resolved means the round is over.
	Resolved
)

// Round-specific rejections.
var (
	ErrInvalidChoice     = errors.New("invalid choice")
	ErrChoiceAlreadyMade = errors.New("choice already made")
	ErrInvalidAction     = errors.New("invalid action")
	ErrActionAlreadySet  = errors.New("action already set")
	ErrActionsPending    = errors.New("both actions must be set before choosing")
	ErrActionsNotWanted  = errors.New("this variant has no actions")
)

// Outcome is the result of the throw that resolved the round. Winner is nil
// for a tie; Action/Actor/Target are set only for a decided Action round.
type Outcome struct {
	Winner  *model.Player
	Choice1 Choice
	Choice2 Choice
	Action  string
	Actor   *model.Player
	Target  *model.Player
}

// Game is one RPS round between two players. Pure state machine, caller
// serializes.
type Game struct {
	player1 model.Player
	player2 model.Player
	action  bool // Action variant
	state   State

	choices map[int64]Choice
	actions map[int64]string
	winner  *model.Player
	wins    map[int64]int // rounds won across rematches
}

// New creates a basic RPS round.
func New(p1, p2 model.Player) *Game {
	return newGame(p1, p2, false)
}

// NewAction creates an RPS Action round. It starts in WaitingForActions.
func NewAction(p1, p2 model.Player) *Game {
	return newGame(p1, p2, true)
}

func newGame(p1, p2 model.Player, action bool) *Game {
	g := &Game{
		player1: p1,
		player2: p2,
		action:  action,
		choices: make(map[int64]Choice, 2),
		actions: make(map[int64]string, 2),
		wins:    map[int64]int{p1.ID: 0, p2.ID: 0},
	}
	g.state = WaitingForChoices
	if action {
		g.state = WaitingForActions
	}
	return g
}

// Kind implements game.Engine.
func (g *Game) Kind() model.GameKind {
	if g.action {
		return model.KindRPSAction
	}
	return model.KindRPS
}

// Over implements game.Engine.
func (g *Game) Over() bool { return g.state == Resolved }

// Result implements game.Engine. Scores carry the per-player round wins so
// rematch streaks persist as one result.
func (g *Game) Result(channelID int64) *model.GameResult {
	res := &model.GameResult{
		Kind:      g.Kind(),
		ChannelID: channelID,
		Player1:   g.player1,
		Player2:   g.player2,
		Score1:    g.wins[g.player1.ID],
		Score2:    g.wins[g.player2.ID],
	}
	if g.winner != nil {
		id := g.winner.ID
		res.WinnerID = &id
	}
	return res
}

// State returns the round's current phase.
func (g *Game) State() State { return g.state }

// Winner returns the resolved round's winner, nil for a tie or an
// unresolved round.
func (g *Game) Winner() *model.Player { return g.winner }

// Wins returns how many rounds a player has won across rematches.
func (g *Game) Wins(playerID int64) int { return g.wins[playerID] }

// HasChosen reports whether a player has already thrown this round.
func (g *Game) HasChosen(playerID int64) bool {
	_, ok := g.choices[playerID]
	return ok
}

// ActionOf returns a player's pre-committed action, "" when unset.
func (g *Game) ActionOf(playerID int64) string { return g.actions[playerID] }

// SubmitAction pre-commits the action a player performs if they win.
// Only valid for the Action variant during WaitingForActions. Once both
// players commit, the round moves to WaitingForChoices.
func (g *Game) SubmitAction(playerID int64, action string) error {
	if !g.action {
		return ErrActionsNotWanted
	}
	if g.state == Resolved {
		return game.ErrGameOver
	}
	if playerID != g.player1.ID && playerID != g.player2.ID {
		return game.ErrNotInGame
	}
	if g.state != WaitingForActions {
		return ErrActionAlreadySet
	}
	if !ValidAction(action) {
		return ErrInvalidAction
	}
	if _, ok := g.actions[playerID]; ok {
		return ErrActionAlreadySet
	}

	g.actions[playerID] = action
	if len(g.actions) == 2 {
		g.state = WaitingForChoices
	}
	return nil
}

// SubmitChoice records a player's throw. The round resolves if and only if
// this was the second throw; until then the outcome is nil. A player's
// second submission is rejected.
func (g *Game) SubmitChoice(playerID int64, choice Choice) (*Outcome, error) {
	if g.state == Resolved {
		return nil, game.ErrGameOver
	}
	if playerID != g.player1.ID && playerID != g.player2.ID {
		return nil, game.ErrNotInGame
	}
	if g.state == WaitingForActions {
		return nil, ErrActionsPending
	}
	if !ValidChoice(choice) {
		return nil, ErrInvalidChoice
	}
	if _, ok := g.choices[playerID]; ok {
		return nil, ErrChoiceAlreadyMade
	}

	g.choices[playerID] = choice
	if len(g.choices) < 2 {
		return nil, nil
	}
	return g.resolve(), nil
}

// resolve settles the round once both throws are in.
func (g *Game) resolve() *Outcome {
	c1 := g.choices[g.player1.ID]
	c2 := g.choices[g.player2.ID]
	out := &Outcome{Choice1: c1, Choice2: c2}

	switch {
	case c1 == c2:
		// tie, no winner and no action payload
	case Beats(c1, c2):
		out.Winner = &g.player1
	default:
		out.Winner = &g.player2
	}

	g.state = Resolved
	g.winner = out.Winner
	if out.Winner != nil {
		g.wins[out.Winner.ID]++
		if g.action {
			loser := g.player2
			if out.Winner.ID == g.player2.ID {
				loser = g.player1
			}
			out.Action = g.actions[out.Winner.ID]
			out.Actor = out.Winner
			out.Target = &loser
		}
	}
	return out
}

// Reset clears choices and actions in place for a rematch between the same
// two players. Round-win tallies survive.
func (g *Game) Reset() {
	g.choices = make(map[int64]Choice, 2)
	g.actions = make(map[int64]string, 2)
	g.winner = nil
	g.state = WaitingForChoices
	if g.action {
		g.state = WaitingForActions
	}
}

// RandomChoice picks a uniform throw, used by rendering hints and tests.
func RandomChoice() Choice {
	return Choices[rand.Intn(len(Choices))]
}
