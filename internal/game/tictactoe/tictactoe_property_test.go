package tictactoe

import (
	"testing"

	"pgregory.net/rapid"

	"telegram-duel-bot/internal/model"
)

// TestTicTacToePlayoutProperty drives random games.
// *For any* random sequence of placements, a rejected placement SHALL leave
// the board and turn untouched, the game SHALL end within nine accepted
// placements, and exactly one mark SHALL occupy every filled cell.
func TestTicTacToePlayoutProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p1 := model.Player{ID: 10, DisplayName: "p1"}
		p2 := model.Player{ID: 20, DisplayName: "p2"}
		g := NewWithFirst(p1, p2, p1)

		accepted := 0
		for !g.Over() {
			mover := g.Current()
			row := rapid.IntRange(0, Size-1).Draw(t, "row")
			col := rapid.IntRange(0, Size-1).Draw(t, "col")

			before := g.Snapshot()
			out, err := g.Place(mover.ID, row, col)
			if err != nil {
				after := g.Snapshot()
				if after.Cells != before.Cells {
					t.Fatalf("rejection mutated the board")
				}
				if after.Current.ID != mover.ID {
					t.Fatalf("rejection switched the turn")
				}
				continue
			}

			accepted++
			if accepted > Size*Size {
				t.Fatalf("more than %d accepted placements", Size*Size)
			}
			if g.Cell(row, col) != g.MarkOf(mover.ID) {
				t.Fatalf("placed cell does not carry the mover's mark")
			}
			if out.Result == Win && out.Winner.ID != mover.ID {
				t.Fatalf("win attributed to the wrong player")
			}
		}

		snap := g.Snapshot()
		if snap.Winner == nil && accepted != Size*Size {
			t.Fatalf("draw with %d placements, want %d", accepted, Size*Size)
		}

		// Mark counts differ by at most one, first mover ahead or even.
		var x, o int
		for r := 0; r < Size; r++ {
			for c := 0; c < Size; c++ {
				switch snap.Cells[r][c] {
				case MarkX:
					x++
				case MarkO:
					o++
				}
			}
		}
		if x != o && x != o+1 {
			t.Fatalf("mark counts out of balance: %d X vs %d O", x, o)
		}
	})
}
