// Package memory implements the Memory Match duel game: a grid of face-down
// emoji cards, two players alternating pair selections.
package memory

import (
	"errors"
	"fmt"
	"math/rand"

	"telegram-duel-bot/internal/game"
	"telegram-duel-bot/internal/model"
)

const (
	// JokerSymbol marks the single unpaired card on odd-sized grids. It
	// scores but never matches.
	JokerSymbol = "🃏"
	// HiddenSymbol is rendered for face-down cards.
	HiddenSymbol = "❓"

	// DefaultRows and DefaultCols describe the standard grid.
	DefaultRows = 5
	DefaultCols = 5
)

// Errors for Memory Match game setup.
var (
	ErrUnknownCategory = errors.New("unknown emoji category")
	ErrBadGrid         = errors.New("unsupported grid size")
)

// winThresholds maps a grid shape to the score that ends the game
// immediately when a player reaches it. Grids without an entry play until
// all pairs are accounted for.
var winThresholds = map[[2]int]int{
	{5, 5}: 7,
	{5, 4}: 6,
}

// WinThreshold returns the immediate-win score for a grid shape, if any.
func WinThreshold(rows, cols int) (int, bool) {
	t, ok := winThresholds[[2]int{rows, cols}]
	return t, ok
}

// Pos addresses a card on the board.
type Pos struct {
	Row int
	Col int
}

// Card is a single board cell.
type Card struct {
	Symbol   string
	Matched  bool
	Revealed bool
	Joker    bool
}

// PairResult classifies a resolved pair selection.
type PairResult int

const (
	// Match means both cards carried the same symbol; the mover keeps the turn.
	Match PairResult = iota
	// Joker means one of the cards was the joker; only it is matched and
	// the mover keeps the turn.
	Joker
	// NoMatch means the symbols differed; the turn passes to the opponent.
	NoMatch
)

// Outcome is the result of a resolved pair selection.
type Outcome struct {
	Result   PairResult
	GameOver bool
	Winner   *model.Player // nil for a tie when GameOver
	Hidden   []Pos         // unmatched cards to re-hide after the reveal delay
}

// Game holds the Memory Match board state for one session. It is a pure
// state machine; the caller serializes access.
type Game struct {
	player1  model.Player
	player2  model.Player
	current  model.Player
	category string
	rows     int
	cols     int
	board    [][]*Card

	scores        map[int64]int
	matchedHalves int // pair = 2 halves, joker = 1 half
	halvesToFind  int
	pairsToFind   int
	hasJoker      bool
	threshold     int // 0 = play out all pairs

	over   bool
	winner *model.Player
}

// New deals a fresh board for the given category and grid. An empty category
// picks a random one. The starting player is chosen at random.
func New(p1, p2 model.Player, category string, rows, cols int) (*Game, error) {
	if rows <= 0 || cols <= 0 {
		return nil, ErrBadGrid
	}
	if category == "" {
		category = RandomCategory()
	}
	symbols, ok := Categories[category]
	if !ok {
		return nil, ErrUnknownCategory
	}

	cells := rows * cols
	hasJoker := cells%2 != 0
	pairs := (cells - boolToInt(hasJoker)) / 2
	if pairs > len(symbols) {
		return nil, fmt.Errorf("%w: %dx%d needs %d pairs, category %q has %d symbols",
			ErrBadGrid, rows, cols, pairs, category, len(symbols))
	}

	deck := make([]string, 0, cells)
	for _, i := range rand.Perm(len(symbols))[:pairs] {
		deck = append(deck, symbols[i], symbols[i])
	}
	if hasJoker {
		deck = append(deck, JokerSymbol)
	}
	rand.Shuffle(len(deck), func(i, j int) { deck[i], deck[j] = deck[j], deck[i] })

	g := newFromDeck(p1, p2, category, rows, cols, deck)
	if rand.Intn(2) == 1 {
		g.current = p2
	}
	return g, nil
}

// NewWithLayout deals a board from an explicit row-major symbol layout, with
// p1 to move first. JokerSymbol cells become the joker. Used by tests and
// rematches that need a deterministic deal.
func NewWithLayout(p1, p2 model.Player, category string, layout [][]string) *Game {
	rows := len(layout)
	cols := len(layout[0])
	deck := make([]string, 0, rows*cols)
	for _, row := range layout {
		deck = append(deck, row...)
	}
	return newFromDeck(p1, p2, category, rows, cols, deck)
}

func newFromDeck(p1, p2 model.Player, category string, rows, cols int, deck []string) *Game {
	g := &Game{
		player1:  p1,
		player2:  p2,
		current:  p1,
		category: category,
		rows:     rows,
		cols:     cols,
		scores:   map[int64]int{p1.ID: 0, p2.ID: 0},
	}

	g.board = make([][]*Card, rows)
	i := 0
	for r := range g.board {
		g.board[r] = make([]*Card, cols)
		for c := range g.board[r] {
			sym := deck[i]
			i++
			g.board[r][c] = &Card{Symbol: sym, Joker: sym == JokerSymbol}
			if sym == JokerSymbol {
				g.hasJoker = true
			}
		}
	}

	// The joker half scores but is never required to finish: once every real
	// pair is matched the joker may be the only card left, with no legal
	// two-card selection to reach it.
	g.pairsToFind = (rows*cols - boolToInt(g.hasJoker)) / 2
	g.halvesToFind = g.pairsToFind * 2
	if t, ok := WinThreshold(rows, cols); ok {
		g.threshold = t
	}
	return g
}

// Kind implements game.Engine.
func (g *Game) Kind() model.GameKind { return model.KindMemory }

// Over implements game.Engine.
func (g *Game) Over() bool { return g.over }

// Result implements game.Engine.
func (g *Game) Result(channelID int64) *model.GameResult {
	res := &model.GameResult{
		Kind:      model.KindMemory,
		ChannelID: channelID,
		Player1:   g.player1,
		Player2:   g.player2,
		Score1:    g.scores[g.player1.ID],
		Score2:    g.scores[g.player2.ID],
	}
	if g.winner != nil {
		id := g.winner.ID
		res.WinnerID = &id
	}
	return res
}

// Current returns the player whose turn it is.
func (g *Game) Current() model.Player { return g.current }

// Score returns a player's pair count.
func (g *Game) Score(playerID int64) int { return g.scores[playerID] }

// PairsToFind returns the number of symbol pairs dealt (the joker excluded).
func (g *Game) PairsToFind() int { return g.pairsToFind }

// HasJoker reports whether the deal included a joker card.
func (g *Game) HasJoker() bool { return g.hasJoker }

// CardAt returns a copy of the card at pos, or false for an out-of-range pos.
func (g *Game) CardAt(p Pos) (Card, bool) {
	if p.Row < 0 || p.Row >= g.rows || p.Col < 0 || p.Col >= g.cols {
		return Card{}, false
	}
	return *g.board[p.Row][p.Col], true
}

// SelectPair resolves one turn: the current player flips the cards at a and
// b. The returned outcome says whether they matched, whether the turn
// passed, and whether the game ended.
func (g *Game) SelectPair(playerID int64, a, b Pos) (*Outcome, error) {
	if g.over {
		return nil, game.ErrGameOver
	}
	if playerID != g.player1.ID && playerID != g.player2.ID {
		return nil, game.ErrNotInGame
	}
	if playerID != g.current.ID {
		return nil, game.ErrNotYourTurn
	}
	if a == b {
		return nil, game.ErrInvalidPosition
	}
	cardA := g.cardAt(a)
	cardB := g.cardAt(b)
	if cardA == nil || cardB == nil {
		return nil, game.ErrInvalidPosition
	}
	if cardA.Matched || cardB.Matched {
		return nil, game.ErrInvalidPosition
	}

	cardA.Revealed = true
	cardB.Revealed = true

	out := &Outcome{}
	switch {
	case cardA.Joker || cardB.Joker:
		joker, other, otherPos := cardA, cardB, b
		if cardB.Joker {
			joker, other, otherPos = cardB, cardA, a
		}
		joker.Matched = true
		// The companion card stays unmatched and goes face down again
		// after the reveal delay.
		other.Revealed = false
		g.scores[playerID]++
		g.matchedHalves++
		out.Result = Joker
		out.Hidden = []Pos{otherPos}
	case cardA.Symbol == cardB.Symbol:
		cardA.Matched = true
		cardB.Matched = true
		g.scores[playerID]++
		g.matchedHalves += 2
		out.Result = Match
	default:
		cardA.Revealed = false
		cardB.Revealed = false
		out.Result = NoMatch
		out.Hidden = []Pos{a, b}
		g.switchTurn()
	}

	g.evaluateEnd(playerID, out)
	return out, nil
}

// evaluateEnd applies the win rules after a resolved pair: a grid-specific
// score threshold first, then exhaustion of all pairs with the higher score
// winning (equal scores tie).
func (g *Game) evaluateEnd(moverID int64, out *Outcome) {
	if g.threshold > 0 && g.scores[moverID] >= g.threshold {
		g.over = true
		winner := g.playerByID(moverID)
		g.winner = &winner
	} else if g.matchedHalves >= g.halvesToFind {
		g.over = true
		s1, s2 := g.scores[g.player1.ID], g.scores[g.player2.ID]
		switch {
		case s1 > s2:
			g.winner = &g.player1
		case s2 > s1:
			g.winner = &g.player2
		}
	}

	if g.over {
		out.GameOver = true
		out.Winner = g.winner
	}
}

// Snapshot is an immutable view of the board for rendering.
type Snapshot struct {
	Category string
	Rows     int
	Cols     int
	Cells    [][]string
	Player1  model.Player
	Player2  model.Player
	Score1   int
	Score2   int
	Current  model.Player
	Over     bool
	Winner   *model.Player
}

// Snapshot renders the visible board: matched and revealed cards face up,
// everything face up once the game is over.
func (g *Game) Snapshot() *Snapshot {
	cells := make([][]string, g.rows)
	for r := range cells {
		cells[r] = make([]string, g.cols)
		for c := range cells[r] {
			card := g.board[r][c]
			if card.Matched || card.Revealed || g.over {
				cells[r][c] = card.Symbol
			} else {
				cells[r][c] = HiddenSymbol
			}
		}
	}
	return &Snapshot{
		Category: g.category,
		Rows:     g.rows,
		Cols:     g.cols,
		Cells:    cells,
		Player1:  g.player1,
		Player2:  g.player2,
		Score1:   g.scores[g.player1.ID],
		Score2:   g.scores[g.player2.ID],
		Current:  g.current,
		Over:     g.over,
		Winner:   g.winner,
	}
}

func (g *Game) cardAt(p Pos) *Card {
	if p.Row < 0 || p.Row >= g.rows || p.Col < 0 || p.Col >= g.cols {
		return nil
	}
	return g.board[p.Row][p.Col]
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

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
