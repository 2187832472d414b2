package render

import (
	"fmt"
	"strconv"
	"strings"

	tele "gopkg.in/telebot.v3"

	"telegram-duel-bot/internal/arena"
	"telegram-duel-bot/internal/game/memory"
	"telegram-duel-bot/internal/game/rps"
	"telegram-duel-bot/internal/game/tictactoe"
)

// board renders the current state of whichever engine the session runs.
func (r *Renderer) board(s *arena.Session) (string, *tele.ReplyMarkup) {
	switch g := s.Engine.(type) {
	case *memory.Game:
		return memoryBoard(g.Snapshot(), s, nil)
	case *tictactoe.Game:
		return tictactoeBoard(g.Snapshot(), s)
	case *rps.Game:
		return rpsBoard(g, s)
	}
	return "…", &tele.ReplyMarkup{}
}

func revealSet(positions ...memory.Pos) map[memory.Pos]bool {
	set := make(map[memory.Pos]bool, len(positions))
	for _, p := range positions {
		set[p] = true
	}
	return set
}

// memoryBoard draws the card grid as an inline keyboard. Cards in reveal are
// shown face up on top of the snapshot, for the pre-delay flash of a missed
// pair.
func memoryBoard(snap *memory.Snapshot, s *arena.Session, reveal map[memory.Pos]bool) (string, *tele.ReplyMarkup) {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, snap.Rows)
	for ri := 0; ri < snap.Rows; ri++ {
		row := make(tele.Row, 0, snap.Cols)
		for ci := 0; ci < snap.Cols; ci++ {
			face := snap.Cells[ri][ci]
			if reveal[memory.Pos{Row: ri, Col: ci}] {
				// Snapshot already re-hid the missed pair; flash it.
				face = cardFace(s, memory.Pos{Row: ri, Col: ci})
			}
			row = append(row, markup.Data(face, "memory", strconv.Itoa(ri), strconv.Itoa(ci)))
		}
		rows = append(rows, row)
	}
	markup.Inline(rows...)

	var sb strings.Builder
	fmt.Fprintf(&sb, "🧠 *Memory Match* — %s\n", snap.Category)
	fmt.Fprintf(&sb, "%s %d : %d %s\n", mention(snap.Player1), snap.Score1, snap.Score2, mention(snap.Player2))
	if !snap.Over {
		fmt.Fprintf(&sb, "🎯 %s, pick two cards", mention(snap.Current))
	}
	return sb.String(), markup
}

func cardFace(s *arena.Session, p memory.Pos) string {
	g, ok := s.Engine.(*memory.Game)
	if !ok {
		return memory.HiddenSymbol
	}
	card, ok := g.CardAt(p)
	if !ok {
		return memory.HiddenSymbol
	}
	return card.Symbol
}

// tictactoeBoard draws the 3x3 grid as an inline keyboard.
func tictactoeBoard(snap *tictactoe.Snapshot, s *arena.Session) (string, *tele.ReplyMarkup) {
	markup := &tele.ReplyMarkup{}
	rows := make([]tele.Row, 0, tictactoe.Size)
	for ri := 0; ri < tictactoe.Size; ri++ {
		row := make(tele.Row, 0, tictactoe.Size)
		for ci := 0; ci < tictactoe.Size; ci++ {
			face := "·"
			if snap.Cells[ri][ci] != tictactoe.MarkEmpty {
				face = string(snap.Cells[ri][ci])
			}
			row = append(row, markup.Data(face, "tictactoe", strconv.Itoa(ri), strconv.Itoa(ci)))
		}
		rows = append(rows, row)
	}
	markup.Inline(rows...)

	var sb strings.Builder
	fmt.Fprintf(&sb, "⚔️ *Tic Tac Toe*\n%s %s  vs  %s %s\n",
		mention(snap.Player1), tictactoe.MarkX, tictactoe.MarkO, mention(snap.Player2))
	if !snap.Over {
		fmt.Fprintf(&sb, "🎯 %s to move", mention(snap.Current))
	}
	return sb.String(), markup
}

// rpsBoard draws the phase-appropriate keyboard: actions first for the
// Action variant, then the three throws.
func rpsBoard(g *rps.Game, s *arena.Session) (string, *tele.ReplyMarkup) {
	markup := &tele.ReplyMarkup{}
	var sb strings.Builder

	switch g.State() {
	case rps.WaitingForActions:
		sb.WriteString("🎭 *RPS Action*\nPick the action you'll perform if you win:")
		var row tele.Row
		var rows []tele.Row
		for i, action := range rps.Actions {
			row = append(row, markup.Data(action, "action", action))
			if (i+1)%3 == 0 {
				rows = append(rows, row)
				row = nil
			}
		}
		if len(row) > 0 {
			rows = append(rows, row)
		}
		markup.Inline(rows...)
		sb.WriteString(waitingNames(g, s))

	case rps.WaitingForChoices:
		fmt.Fprintf(&sb, "✊ *%s*\nMake your throw:", gameName(g.Kind()))
		rock := markup.Data(rps.Emojis[rps.Rock]+" Rock", "rps", string(rps.Rock))
		paper := markup.Data(rps.Emojis[rps.Paper]+" Paper", "rps", string(rps.Paper))
		scissors := markup.Data(rps.Emojis[rps.Scissors]+" Scissors", "rps", string(rps.Scissors))
		markup.Inline(markup.Row(rock, paper, scissors))
		if g.HasChosen(s.Player1.ID) {
			fmt.Fprintf(&sb, "\n⏳ Waiting for %s", mention(s.Player2))
		} else if g.HasChosen(s.Player2.ID) {
			fmt.Fprintf(&sb, "\n⏳ Waiting for %s", mention(s.Player1))
		}

	case rps.Resolved:
		fmt.Fprintf(&sb, "✊ *%s*\nRounds: %s %d : %d %s",
			gameName(g.Kind()), mention(s.Player1), g.Wins(s.Player1.ID), g.Wins(s.Player2.ID), mention(s.Player2))
	}
	return sb.String(), markup
}

func waitingNames(g *rps.Game, s *arena.Session) string {
	var waiting []string
	if g.ActionOf(s.Player1.ID) == "" {
		waiting = append(waiting, mention(s.Player1))
	}
	if g.ActionOf(s.Player2.ID) == "" {
		waiting = append(waiting, mention(s.Player2))
	}
	if len(waiting) == 0 {
		return ""
	}
	return "\n⏳ Waiting for " + strings.Join(waiting, ", ")
}
