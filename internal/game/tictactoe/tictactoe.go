// Package tictactoe implements the 3x3 Tic Tac Toe duel game.
package tictactoe

import (
	"math/rand"

	"telegram-duel-bot/internal/game"
	"telegram-duel-bot/internal/model"
)

// Size is the board edge length.
const Size = 3

// Mark is one player's symbol on the board.
type Mark string

const (
	MarkX     Mark = "❌"
	MarkO     Mark = "⭕"
	MarkEmpty Mark = ""
)

// MoveResult classifies an accepted placement.
type MoveResult int

const (
	// Placed means the mark went down and the turn passed.
	Placed MoveResult = iota
	// Win means the placement completed three in a row.
	Win
	// Draw means the placement filled the board with no winner.
	Draw
)

// Outcome is the result of an accepted placement.
type Outcome struct {
	Result MoveResult
	Winner *model.Player // set only for Win
}

// Game holds one Tic Tac Toe board. Pure state machine, caller serializes.
type Game struct {
	player1 model.Player // X
	player2 model.Player // O
	current model.Player
	board   [Size][Size]Mark
	moves   int
	over    bool
	winner  *model.Player
}

// New creates a board with a randomly chosen starting player.
// Player 1 plays X, player 2 plays O.
func New(p1, p2 model.Player) *Game {
	g := &Game{player1: p1, player2: p2, current: p1}
	if rand.Intn(2) == 1 {
		g.current = p2
	}
	return g
}

// NewWithFirst creates a board where first moves first. Used by tests.
func NewWithFirst(p1, p2, first model.Player) *Game {
	return &Game{player1: p1, player2: p2, current: first}
}

// Kind implements game.Engine.
func (g *Game) Kind() model.GameKind { return model.KindTicTacToe }

// Over implements game.Engine.
func (g *Game) Over() bool { return g.over }

// Result implements game.Engine.
func (g *Game) Result(channelID int64) *model.GameResult {
	res := &model.GameResult{
		Kind:      model.KindTicTacToe,
		ChannelID: channelID,
		Player1:   g.player1,
		Player2:   g.player2,
	}
	if g.winner != nil {
		id := g.winner.ID
		res.WinnerID = &id
		if id == g.player1.ID {
			res.Score1 = 1
		} else {
			res.Score2 = 1
		}
	}
	return res
}

// Current returns the player whose turn it is.
func (g *Game) Current() model.Player { return g.current }

// MarkOf returns the symbol a player places.
func (g *Game) MarkOf(playerID int64) Mark {
	if playerID == g.player1.ID {
		return MarkX
	}
	return MarkO
}

// Cell returns the mark at (row, col), MarkEmpty when unoccupied.
func (g *Game) Cell(row, col int) Mark {
	return g.board[row][col]
}

// Place attempts to put the player's mark at (row, col). Rejections leave
// the board untouched.
func (g *Game) Place(playerID int64, row, col int) (*Outcome, error) {
	if g.over {
		return nil, game.ErrGameOver
	}
	if playerID != g.player1.ID && playerID != g.player2.ID {
		return nil, game.ErrNotInGame
	}
	if playerID != g.current.ID {
		return nil, game.ErrNotYourTurn
	}
	if row < 0 || row >= Size || col < 0 || col >= Size {
		return nil, game.ErrInvalidPosition
	}
	if g.board[row][col] != MarkEmpty {
		return nil, game.ErrInvalidPosition
	}

	g.board[row][col] = g.MarkOf(playerID)
	g.moves++

	if g.hasLine(g.board[row][col]) {
		g.over = true
		winner := g.playerByID(playerID)
		g.winner = &winner
		return &Outcome{Result: Win, Winner: g.winner}, nil
	}
	if g.moves == Size*Size {
		g.over = true
		return &Outcome{Result: Draw}, nil
	}

	g.switchTurn()
	return &Outcome{Result: Placed}, nil
}

// hasLine checks the 3 rows, 3 columns and 2 diagonals for three of mark.
func (g *Game) hasLine(mark Mark) bool {
	for i := 0; i < Size; i++ {
		if g.board[i][0] == mark && g.board[i][1] == mark && g.board[i][2] == mark {
			return true
		}
		if g.board[0][i] == mark && g.board[1][i] == mark && g.board[2][i] == mark {
			return true
		}
	}
	if g.board[0][0] == mark && g.board[1][1] == mark && g.board[2][2] == mark {
		return true
	}
	return g.board[0][2] == mark && g.board[1][1] == mark && g.board[2][0] == mark
}

// Snapshot is an immutable view of the board for rendering.
type Snapshot struct {
	Cells   [Size][Size]Mark
	Player1 model.Player
	Player2 model.Player
	Current model.Player
	Over    bool
	Winner  *model.Player
}

// Snapshot returns the current board view.
func (g *Game) Snapshot() *Snapshot {
	return &Snapshot{
		Cells:   g.board,
		Player1: g.player1,
		Player2: g.player2,
		Current: g.current,
		Over:    g.over,
		Winner:  g.winner,
	}
}

func (g *Game) switchTurn() {
	if g.current.ID == g.player1.ID {
		g.current = g.player2
	} else {
		g.current = g.player1
	}
}

func (g *Game) playerByID(id int64) model.Player {
	if id == g.player1.ID {
		return g.player1
	}
	return g.player2
}
