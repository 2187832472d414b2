package memory

import (
	"testing"

	"pgregory.net/rapid"

	"telegram-duel-bot/internal/model"
)

// TestMemoryPlayoutProperty drives random full games.
// *For any* random sequence of pair selections on a random even board, the
// game SHALL terminate with the scores summing to the dealt pair count, the
// turn SHALL change only on a NoMatch, and a rejected selection SHALL leave
// the board, scores and turn untouched.
func TestMemoryPlayoutProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		p1 := model.Player{ID: 1, DisplayName: "p1"}
		p2 := model.Player{ID: 2, DisplayName: "p2"}

		rows := rapid.IntRange(2, 4).Draw(t, "rows")
		cols := rapid.SampledFrom([]int{2, 4}).Draw(t, "cols")
		symbols := Categories["animals"]

		pairs := rows * cols / 2
		deck := make([]string, 0, rows*cols)
		for i := 0; i < pairs; i++ {
			deck = append(deck, symbols[i], symbols[i])
		}
		order := rapid.Permutation(deck).Draw(t, "deal")

		layout := make([][]string, rows)
		for r := range layout {
			layout[r] = order[r*cols : (r+1)*cols]
		}
		g := NewWithLayout(p1, p2, "animals", layout)

		steps := 0
		for !g.Over() {
			steps++
			if steps > 10000 {
				t.Fatalf("game did not terminate")
			}

			mover := g.Current()
			a := Pos{
				Row: rapid.IntRange(0, rows-1).Draw(t, "aRow"),
				Col: rapid.IntRange(0, cols-1).Draw(t, "aCol"),
			}
			b := Pos{
				Row: rapid.IntRange(0, rows-1).Draw(t, "bRow"),
				Col: rapid.IntRange(0, cols-1).Draw(t, "bCol"),
			}

			s1, s2 := g.Score(p1.ID), g.Score(p2.ID)
			out, err := g.SelectPair(mover.ID, a, b)
			if err != nil {
				// Rejection must not mutate anything.
				if g.Current().ID != mover.ID {
					t.Fatalf("rejection switched the turn")
				}
				if g.Score(p1.ID) != s1 || g.Score(p2.ID) != s2 {
					t.Fatalf("rejection changed a score")
				}
				continue
			}

			switch out.Result {
			case NoMatch:
				if g.Over() {
					break
				}
				if g.Current().ID == mover.ID {
					t.Fatalf("NoMatch kept the turn")
				}
			case Match, Joker:
				if !g.Over() && g.Current().ID != mover.ID {
					t.Fatalf("scoring selection switched the turn")
				}
			}
		}

		total := g.Score(p1.ID) + g.Score(p2.ID)
		if total != pairs {
			t.Fatalf("scores sum to %d, dealt %d pairs", total, pairs)
		}

		res := g.Result(1)
		switch {
		case res.Score1 > res.Score2:
			if res.WinnerID == nil || *res.WinnerID != p1.ID {
				t.Fatalf("higher score did not win")
			}
		case res.Score2 > res.Score1:
			if res.WinnerID == nil || *res.WinnerID != p2.ID {
				t.Fatalf("higher score did not win")
			}
		default:
			if res.WinnerID != nil {
				t.Fatalf("equal scores must tie")
			}
		}
	})
}
