// Package render turns arena state into Telegram messages: board keyboards,
// challenge prompts and result announcements. It is the only package that
// talks to the chat API about game state.
package render

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v3"

	"telegram-duel-bot/internal/arena"
	"telegram-duel-bot/internal/dispatch"
	"telegram-duel-bot/internal/game"
	"telegram-duel-bot/internal/game/memory"
	"telegram-duel-bot/internal/game/rps"
	"telegram-duel-bot/internal/model"
)

// API is the slice of telebot the renderer needs. *tele.Bot satisfies it.
type API interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
	Edit(msg tele.Editable, what interface{}, opts ...interface{}) (*tele.Message, error)
	Delete(msg tele.Editable) error
}

// Renderer posts and edits the per-channel game messages.
type Renderer struct {
	api API

	mu            sync.Mutex
	boards        map[int64]*tele.Message // channel -> live board message
	challenges    map[int64]*tele.Message // channel -> challenge prompt
	confirmations map[int64]*tele.Message // channel -> end confirmation prompt
}

// New creates a renderer on top of the bot API.
func New(api API) *Renderer {
	return &Renderer{
		api:           api,
		boards:        make(map[int64]*tele.Message),
		challenges:    make(map[int64]*tele.Message),
		confirmations: make(map[int64]*tele.Message),
	}
}

func mention(p model.Player) string {
	return fmt.Sprintf("[%s](tg://user?id=%d)", p.DisplayName, p.ID)
}

func chat(id int64) tele.Recipient { return tele.ChatID(id) }

// wrapAPIErr tags "the channel is gone" failures so callers treat them as
// non-fatal teardown noise rather than transient send errors.
func wrapAPIErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, tele.ErrChatNotFound) || errors.Is(err, tele.ErrBlockedByUser) {
		return fmt.Errorf("%w: %v", game.ErrChannelUnreachable, err)
	}
	return err
}

// ChallengeCreated posts the invitation with accept/decline buttons.
func (r *Renderer) ChallengeCreated(_ context.Context, ch *arena.Challenge) error {
	markup := &tele.ReplyMarkup{}
	accept := markup.Data("✅ Accept", "challenge", "accept")
	decline := markup.Data("❌ Decline", "challenge", "decline")
	markup.Inline(markup.Row(accept, decline))

	text := fmt.Sprintf("🎮 %s challenges %s to *%s*!\n%s, do you accept?",
		mention(ch.Challenger), mention(ch.Target), gameName(ch.Kind), mention(ch.Target))

	msg, err := r.api.Send(chat(ch.Key.ChannelID), text, markup, tele.ModeMarkdown)
	if err != nil {
		return wrapAPIErr(err)
	}
	r.mu.Lock()
	r.challenges[ch.Key.ChannelID] = msg
	r.mu.Unlock()
	return nil
}

// ChallengeResolved rewrites the invitation with its outcome and drops the
// buttons.
func (r *Renderer) ChallengeResolved(_ context.Context, ch *arena.Challenge, ev dispatch.ChallengeEvent) error {
	var text string
	switch ev {
	case dispatch.ChallengeAccepted:
		text = fmt.Sprintf("⚔️ %s accepted! The %s duel begins.", mention(ch.Target), gameName(ch.Kind))
	case dispatch.ChallengeDeclined:
		text = fmt.Sprintf("🙅 %s declined the %s challenge.", mention(ch.Target), gameName(ch.Kind))
	case dispatch.ChallengeExpired:
		text = fmt.Sprintf("⌛ The %s challenge to %s expired.", gameName(ch.Kind), mention(ch.Target))
	case dispatch.ChallengeCancelled:
		text = fmt.Sprintf("↩️ %s withdrew the %s challenge.", mention(ch.Challenger), gameName(ch.Kind))
	}

	r.mu.Lock()
	msg := r.challenges[ch.Key.ChannelID]
	delete(r.challenges, ch.Key.ChannelID)
	r.mu.Unlock()

	if msg == nil {
		_, err := r.api.Send(chat(ch.Key.ChannelID), text, tele.ModeMarkdown)
		return wrapAPIErr(err)
	}
	_, err := r.api.Edit(msg, text, tele.ModeMarkdown)
	return wrapAPIErr(err)
}

// SessionStarted posts the initial board.
func (r *Renderer) SessionStarted(ctx context.Context, s *arena.Session) error {
	text, markup := r.board(s)
	msg, err := r.api.Send(chat(s.ChannelID), text, markup, tele.ModeMarkdown)
	if err != nil {
		return wrapAPIErr(err)
	}
	r.mu.Lock()
	r.boards[s.ChannelID] = msg
	r.mu.Unlock()
	return nil
}

// BoardUpdated redraws the live board message in place.
func (r *Renderer) BoardUpdated(_ context.Context, s *arena.Session) error {
	text, markup := r.board(s)
	return r.editBoard(s.ChannelID, text, markup)
}

// MemoryReveal shows the freshly flipped pair before any re-hide delay.
func (r *Renderer) MemoryReveal(_ context.Context, s *arena.Session, out *memory.Outcome, a, b memory.Pos) error {
	g, ok := s.Engine.(*memory.Game)
	if !ok {
		return nil
	}
	text, markup := memoryBoard(g.Snapshot(), s, revealSet(a, b))

	switch out.Result {
	case memory.Match:
		text += "\n✨ A pair!"
	case memory.Joker:
		text += "\n🃏 The joker! Half a pair scored."
	case memory.NoMatch:
		text += "\n👀 No match, memorize them..."
	}
	return r.editBoard(s.ChannelID, text, markup)
}

// RPSRoundResolved announces the round and offers a rematch.
func (r *Renderer) RPSRoundResolved(_ context.Context, s *arena.Session, out *rps.Outcome, gifURL string) error {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s  vs  %s %s\n",
		mention(s.Player1), rps.Emojis[out.Choice1], rps.Emojis[out.Choice2], mention(s.Player2))

	if out.Winner == nil {
		sb.WriteString("🤝 It's a tie!")
	} else {
		fmt.Fprintf(&sb, "🏆 %s wins!", mention(*out.Winner))
		if out.Action != "" {
			fmt.Fprintf(&sb, "\n💥 %s %ss %s!", mention(*out.Actor), out.Action, mention(*out.Target))
		}
	}

	markup := &tele.ReplyMarkup{}
	again := markup.Data("🔁 Play again", "rematch", "yes")
	stop := markup.Data("🚪 Leave", "rematch", "no")
	markup.Inline(markup.Row(again, stop))

	if err := r.editBoard(s.ChannelID, sb.String(), markup); err != nil {
		return err
	}
	if gifURL != "" {
		_, err := r.api.Send(chat(s.ChannelID), &tele.Animation{File: tele.FromURL(gifURL)})
		return wrapAPIErr(err)
	}
	return nil
}

// ConfirmationCreated asks the opponent whether the game may end early.
func (r *Renderer) ConfirmationCreated(_ context.Context, c *arena.Confirmation) error {
	markup := &tele.ReplyMarkup{}
	yes := markup.Data("🛑 End it", "confirm", c.ID.String(), "yes")
	no := markup.Data("▶️ Keep playing", "confirm", c.ID.String(), "no")
	markup.Inline(markup.Row(yes, no))

	text := fmt.Sprintf("%s wants to end the game. %s, do you agree?",
		mention(c.Requester), mention(c.Opponent))
	msg, err := r.api.Send(chat(c.ChannelID), text, markup, tele.ModeMarkdown)
	if err != nil {
		return wrapAPIErr(err)
	}
	r.mu.Lock()
	r.confirmations[c.ChannelID] = msg
	r.mu.Unlock()
	return nil
}

// ConfirmationResolved rewrites the confirmation prompt with its outcome.
func (r *Renderer) ConfirmationResolved(_ context.Context, c *arena.Confirmation, ev dispatch.ConfirmationEvent) error {
	var text string
	switch ev {
	case dispatch.ConfirmationConfirmed:
		text = fmt.Sprintf("🛑 %s agreed to end the game.", mention(c.Opponent))
	case dispatch.ConfirmationRejected:
		text = fmt.Sprintf("▶️ %s wants to keep playing.", mention(c.Opponent))
	case dispatch.ConfirmationExpired:
		text = "⌛ The end request expired, the game goes on."
	}

	r.mu.Lock()
	msg := r.confirmations[c.ChannelID]
	delete(r.confirmations, c.ChannelID)
	r.mu.Unlock()

	if msg == nil {
		_, err := r.api.Send(chat(c.ChannelID), text, tele.ModeMarkdown)
		return wrapAPIErr(err)
	}
	_, err := r.api.Edit(msg, text, tele.ModeMarkdown)
	return wrapAPIErr(err)
}

// SessionEnded rewrites the board with the final standings.
func (r *Renderer) SessionEnded(_ context.Context, s *arena.Session, res *model.GameResult, reason dispatch.EndReason) error {
	var sb strings.Builder
	switch reason {
	case dispatch.EndedReaped:
		sb.WriteString("💤 Game ended due to inactivity.\n")
	case dispatch.EndedMutual:
		sb.WriteString("🛑 Game ended by mutual agreement.\n")
	default:
		sb.WriteString("🏁 Game over!\n")
	}

	if winner, ok := res.Winner(); ok {
		loser, _ := res.Loser()
		fmt.Fprintf(&sb, "🏆 %s defeats %s", mention(winner), mention(loser))
	} else {
		fmt.Fprintf(&sb, "🤝 No winner between %s and %s", mention(s.Player1), mention(s.Player2))
	}
	if res.Kind == model.KindMemory || res.Kind == model.KindRPS || res.Kind == model.KindRPSAction {
		fmt.Fprintf(&sb, "  (%d : %d)", res.Score1, res.Score2)
	}

	r.mu.Lock()
	msg := r.boards[s.ChannelID]
	delete(r.boards, s.ChannelID)
	r.mu.Unlock()

	if msg == nil {
		_, err := r.api.Send(chat(s.ChannelID), sb.String(), tele.ModeMarkdown)
		return wrapAPIErr(err)
	}
	_, err := r.api.Edit(msg, sb.String(), tele.ModeMarkdown)
	return wrapAPIErr(err)
}

func (r *Renderer) editBoard(channelID int64, text string, markup *tele.ReplyMarkup) error {
	r.mu.Lock()
	msg := r.boards[channelID]
	r.mu.Unlock()

	if msg == nil {
		sent, err := r.api.Send(chat(channelID), text, markup, tele.ModeMarkdown)
		if err != nil {
			return wrapAPIErr(err)
		}
		r.mu.Lock()
		r.boards[channelID] = sent
		r.mu.Unlock()
		return nil
	}
	_, err := r.api.Edit(msg, text, markup, tele.ModeMarkdown)
	return wrapAPIErr(err)
}

func gameName(kind model.GameKind) string {
	switch kind {
	case model.KindMemory:
		return "Memory Match"
	case model.KindTicTacToe:
		return "Tic Tac Toe"
	case model.KindRPS:
		return "Rock Paper Scissors"
	case model.KindRPSAction:
		return "RPS Action"
	}
	return string(kind)
}
