package tictactoe

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"telegram-duel-bot/internal/game"
	"telegram-duel-bot/internal/model"
)

var (
	alice = model.Player{ID: 1, DisplayName: "alice"}
	bob   = model.Player{ID: 2, DisplayName: "bob"}
)

func TestPlace_AlternatesTurns(t *testing.T) {
	g := NewWithFirst(alice, bob, alice)

	out, err := g.Place(alice.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, Placed, out.Result)
	assert.Equal(t, bob.ID, g.Current().ID)
	assert.Equal(t, MarkX, g.Cell(0, 0))

	out, err = g.Place(bob.ID, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, Placed, out.Result)
	assert.Equal(t, alice.ID, g.Current().ID)
	assert.Equal(t, MarkO, g.Cell(1, 1))
}

func TestPlace_Rejections(t *testing.T) {
	g := NewWithFirst(alice, bob, alice)
	_, err := g.Place(alice.ID, 0, 0)
	require.NoError(t, err)

	tests := []struct {
		name    string
		player  int64
		row     int
		col     int
		wantErr error
	}{
		{"not your turn", alice.ID, 1, 1, game.ErrNotYourTurn},
		{"not in game", 99, 1, 1, game.ErrNotInGame},
		{"occupied cell", bob.ID, 0, 0, game.ErrInvalidPosition},
		{"row too large", bob.ID, 3, 0, game.ErrInvalidPosition},
		{"negative col", bob.ID, 0, -1, game.ErrInvalidPosition},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := g.Place(tt.player, tt.row, tt.col)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, out)
			assert.Equal(t, bob.ID, g.Current().ID, "rejection keeps the turn")
		})
	}
}

func TestPlace_WinLines(t *testing.T) {
	tests := []struct {
		name  string
		cells [][2]int // alice's winning line, interleaved with bob filler
		bob   [][2]int
	}{
		{"top row", [][2]int{{0, 0}, {0, 1}, {0, 2}}, [][2]int{{1, 0}, {1, 1}}},
		{"middle column", [][2]int{{0, 1}, {1, 1}, {2, 1}}, [][2]int{{0, 0}, {1, 0}}},
		{"main diagonal", [][2]int{{0, 0}, {1, 1}, {2, 2}}, [][2]int{{0, 1}, {0, 2}}},
		{"anti diagonal", [][2]int{{0, 2}, {1, 1}, {2, 0}}, [][2]int{{0, 0}, {0, 1}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewWithFirst(alice, bob, alice)
			var out *Outcome
			for i := range tt.cells {
				var err error
				out, err = g.Place(alice.ID, tt.cells[i][0], tt.cells[i][1])
				require.NoError(t, err)
				if i < len(tt.bob) {
					_, err = g.Place(bob.ID, tt.bob[i][0], tt.bob[i][1])
					require.NoError(t, err)
				}
			}

			assert.Equal(t, Win, out.Result)
			require.NotNil(t, out.Winner)
			assert.Equal(t, alice.ID, out.Winner.ID)
			assert.True(t, g.Over())

			res := g.Result(9)
			assert.Equal(t, model.KindTicTacToe, res.Kind)
			require.NotNil(t, res.WinnerID)
			assert.Equal(t, alice.ID, *res.WinnerID)
			assert.Equal(t, 1, res.Score1)
			assert.Equal(t, 0, res.Score2)
		})
	}
}

func TestPlace_Draw(t *testing.T) {
	g := NewWithFirst(alice, bob, alice)

	// X O X
	// X O O
	// O X X
	moves := []struct {
		player int64
		row    int
		col    int
	}{
		{alice.ID, 0, 0}, {bob.ID, 0, 1},
		{alice.ID, 0, 2}, {bob.ID, 1, 1},
		{alice.ID, 1, 0}, {bob.ID, 1, 2},
		{alice.ID, 2, 1}, {bob.ID, 2, 0},
		{alice.ID, 2, 2},
	}

	var out *Outcome
	for _, m := range moves {
		var err error
		out, err = g.Place(m.player, m.row, m.col)
		require.NoError(t, err)
	}

	assert.Equal(t, Draw, out.Result)
	assert.Nil(t, out.Winner)
	assert.True(t, g.Over())

	res := g.Result(9)
	assert.Nil(t, res.WinnerID)
	_, ok := res.Winner()
	assert.False(t, ok)
}

func TestPlace_AfterGameOver(t *testing.T) {
	g := NewWithFirst(alice, bob, alice)
	script := []struct {
		player int64
		row    int
		col    int
	}{
		{alice.ID, 0, 0}, {bob.ID, 1, 0},
		{alice.ID, 0, 1}, {bob.ID, 1, 1},
		{alice.ID, 0, 2},
	}
	for _, m := range script {
		_, err := g.Place(m.player, m.row, m.col)
		require.NoError(t, err)
	}
	require.True(t, g.Over())

	_, err := g.Place(bob.ID, 2, 2)
	assert.ErrorIs(t, err, game.ErrGameOver)
}

func TestSnapshot(t *testing.T) {
	g := NewWithFirst(alice, bob, alice)
	_, err := g.Place(alice.ID, 1, 1)
	require.NoError(t, err)

	snap := g.Snapshot()
	assert.Equal(t, MarkX, snap.Cells[1][1])
	assert.Equal(t, MarkEmpty, snap.Cells[0][0])
	assert.Equal(t, bob.ID, snap.Current.ID)
	assert.False(t, snap.Over)
	assert.Nil(t, snap.Winner)
}
