// Package handler provides Telegram bot command and callback handlers.
package handler

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-duel-bot/internal/arena"
	"telegram-duel-bot/internal/dispatch"
	"telegram-duel-bot/internal/game"
	"telegram-duel-bot/internal/game/memory"
	"telegram-duel-bot/internal/game/rps"
	"telegram-duel-bot/internal/model"
)

// pendingKey identifies a player's first card pick in a channel.
type pendingKey struct {
	ChannelID int64
	PlayerID  int64
}

type pendingPick struct {
	session *arena.Session
	pos     memory.Pos
}

// pickTracker pairs up the two taps of a memory selection. Each pick is bound
// to the session it was made in; a pick left over from an earlier game in the
// channel is replaced, never silently paired with the new board.
type pickTracker struct {
	mu    sync.Mutex
	picks map[pendingKey]pendingPick
}

func newPickTracker() *pickTracker {
	return &pickTracker{picks: make(map[pendingKey]pendingPick)}
}

// Take stores pos as the player's first pick and reports false, or returns
// the stored first pick and true when pos completes the pair in the same
// session.
func (t *pickTracker) Take(key pendingKey, s *arena.Session, pos memory.Pos) (memory.Pos, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	p, ok := t.picks[key]
	if !ok || p.session != s {
		t.picks[key] = pendingPick{session: s, pos: pos}
		return memory.Pos{}, false
	}
	delete(t.picks, key)
	return p.pos, true
}

// GameHandler routes duel commands and board callbacks into the dispatcher.
type GameHandler struct {
	dispatcher *dispatch.Dispatcher
	picks      *pickTracker
}

// NewGameHandler creates a new GameHandler.
func NewGameHandler(dispatcher *dispatch.Dispatcher) *GameHandler {
	return &GameHandler{
		dispatcher: dispatcher,
		picks:      newPickTracker(),
	}
}

func player(u *tele.User) model.Player {
	name := u.Username
	if name == "" {
		name = u.FirstName
	}
	return model.Player{ID: u.ID, DisplayName: name}
}

// target resolves the challenged user from a reply or a text mention.
func target(c tele.Context) (*tele.User, bool) {
	msg := c.Message()
	if msg == nil {
		return nil, false
	}
	if msg.ReplyTo != nil && msg.ReplyTo.Sender != nil {
		return msg.ReplyTo.Sender, true
	}
	for _, e := range msg.Entities {
		if e.Type == tele.EntityTMention && e.User != nil {
			return e.User, true
		}
	}
	return nil, false
}

// challenge is the shared body of all four game commands.
func (h *GameHandler) challenge(c tele.Context, command string, params game.Params) error {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	tgt, ok := target(c)
	if !ok {
		return c.Reply("❌ Reply to your opponent's message (or mention them) to challenge.")
	}
	if tgt.IsBot {
		return c.Reply("🤖 Bots don't play.")
	}

	_, err := h.dispatcher.Challenge(context.Background(), player(sender), player(tgt), chat.ID, command, params)
	switch {
	case errors.Is(err, dispatch.ErrSelfChallenge):
		return c.Reply("🙃 You can't challenge yourself.")
	case errors.Is(err, game.ErrAlreadyActive):
		return c.Reply("⚠️ There's already a pending challenge or running game here.")
	case err != nil:
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("failed to create challenge")
		return c.Reply("❌ Something went wrong, try again.")
	}
	return nil
}

// HandleMemory handles /memory [category].
func (h *GameHandler) HandleMemory(c tele.Context) error {
	params := game.Params{Rows: memory.DefaultRows, Cols: memory.DefaultCols}
	for _, arg := range c.Args() {
		if memory.ValidCategory(arg) {
			params.Category = arg
			break
		}
	}
	return h.challenge(c, "/memory", params)
}

// HandleTicTacToe handles /tictactoe.
func (h *GameHandler) HandleTicTacToe(c tele.Context) error {
	return h.challenge(c, "/tictactoe", game.Params{})
}

// HandleRPS handles /rps.
func (h *GameHandler) HandleRPS(c tele.Context) error {
	return h.challenge(c, "/rps", game.Params{})
}

// HandleRPSAction handles /rpsaction.
func (h *GameHandler) HandleRPSAction(c tele.Context) error {
	return h.challenge(c, "/rpsaction", game.Params{})
}

// HandleEndGame handles /endgame: ask the opponent for mutual agreement.
func (h *GameHandler) HandleEndGame(c tele.Context) error {
	sender := c.Sender()
	chat := c.Chat()
	if sender == nil || chat == nil {
		return nil
	}

	_, err := h.dispatcher.RequestEnd(context.Background(), sender.ID, chat.ID)
	switch {
	case errors.Is(err, dispatch.ErrNoActiveGame):
		return c.Reply("🤷 No game is running here.")
	case errors.Is(err, game.ErrNotInGame):
		return c.Reply("👀 You're not playing in this game.")
	case errors.Is(err, game.ErrAlreadyActive):
		return c.Reply("⚠️ An end request is already waiting for an answer.")
	case err != nil:
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("failed to request game end")
		return c.Reply("❌ Something went wrong, try again.")
	}
	return nil
}

// HandleCallback routes inline-keyboard taps by their button unique.
func (h *GameHandler) HandleCallback(c tele.Context) error {
	cb := c.Callback()
	if cb == nil || c.Sender() == nil || c.Chat() == nil {
		return nil
	}

	// Telebot prefixes callback data with \f<unique>|<args>.
	data := strings.TrimPrefix(cb.Data, "\f")
	parts := strings.Split(data, "|")
	if len(parts) == 0 {
		return nil
	}

	switch parts[0] {
	case "challenge":
		return h.onChallengeButton(c, parts[1:])
	case "memory":
		return h.onMemoryButton(c, parts[1:])
	case "tictactoe":
		return h.onTicTacToeButton(c, parts[1:])
	case "rps":
		return h.onRPSButton(c, parts[1:])
	case "action":
		return h.onActionButton(c, parts[1:])
	case "confirm":
		return h.onConfirmButton(c, parts[1:])
	case "rematch":
		return h.onRematchButton(c, parts[1:])
	}
	return nil
}

func (h *GameHandler) onChallengeButton(c tele.Context, args []string) error {
	if len(args) < 1 {
		return nil
	}
	ctx := context.Background()
	senderID := c.Sender().ID
	chatID := c.Chat().ID

	var err error
	if args[0] == "accept" {
		_, err = h.dispatcher.AcceptChallenge(ctx, senderID, chatID)
	} else {
		err = h.dispatcher.DeclineChallenge(ctx, senderID, chatID)
	}

	switch {
	case errors.Is(err, game.ErrAlreadyResolved):
		return toast(c, "This challenge isn't for you, or it already expired.")
	case errors.Is(err, game.ErrAlreadyActive):
		return toast(c, "Another game is already running here.")
	case err != nil:
		log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to resolve challenge")
		return toast(c, "Something went wrong.")
	}
	return c.Respond()
}

func (h *GameHandler) onMemoryButton(c tele.Context, args []string) error {
	pos, ok := parsePos(args)
	if !ok {
		return nil
	}
	key := pendingKey{ChannelID: c.Chat().ID, PlayerID: c.Sender().ID}
	s, ok := h.dispatcher.Sessions().Get(key.ChannelID)
	if !ok {
		return toast(c, "No game is running here.")
	}

	first, ready := h.picks.Take(key, s, pos)
	if !ready {
		return toast(c, "First card picked, choose its pair.")
	}

	out, err := h.dispatcher.SelectPair(context.Background(), key.PlayerID, key.ChannelID, first, pos)
	if err != nil {
		return h.moveError(c, err)
	}
	if out.Result == memory.NoMatch {
		return toast(c, "No match, turn passes.")
	}
	return c.Respond()
}

func (h *GameHandler) onTicTacToeButton(c tele.Context, args []string) error {
	pos, ok := parsePos(args)
	if !ok {
		return nil
	}
	_, err := h.dispatcher.Place(context.Background(), c.Sender().ID, c.Chat().ID, pos.Row, pos.Col)
	if err != nil {
		return h.moveError(c, err)
	}
	return c.Respond()
}

func (h *GameHandler) onRPSButton(c tele.Context, args []string) error {
	if len(args) < 1 {
		return nil
	}
	_, err := h.dispatcher.SubmitChoice(context.Background(), c.Sender().ID, c.Chat().ID, rps.Choice(args[0]))
	if err != nil {
		return h.moveError(c, err)
	}
	return toast(c, "Throw locked in.")
}

func (h *GameHandler) onActionButton(c tele.Context, args []string) error {
	if len(args) < 1 {
		return nil
	}
	err := h.dispatcher.SubmitAction(context.Background(), c.Sender().ID, c.Chat().ID, args[0])
	if err != nil {
		return h.moveError(c, err)
	}
	return toast(c, "Action locked in.")
}

func (h *GameHandler) onConfirmButton(c tele.Context, args []string) error {
	if len(args) < 2 {
		return nil
	}
	id, err := uuid.Parse(args[0])
	if err != nil {
		return nil
	}
	decision := arena.Decline
	if args[1] == "yes" {
		decision = arena.Accept
	}

	err = h.dispatcher.ResolveConfirmation(context.Background(), id, c.Sender().ID, decision)
	switch {
	case errors.Is(err, game.ErrUnknownUser):
		return toast(c, "Only your opponent can answer this.")
	case errors.Is(err, game.ErrAlreadyResolved):
		return toast(c, "This request was already answered.")
	case err != nil:
		log.Error().Err(err).Int64("chat_id", c.Chat().ID).Msg("failed to resolve confirmation")
		return toast(c, "Something went wrong.")
	}
	return c.Respond()
}

func (h *GameHandler) onRematchButton(c tele.Context, args []string) error {
	if len(args) < 1 {
		return nil
	}
	ctx := context.Background()
	var err error
	if args[0] == "yes" {
		err = h.dispatcher.Rematch(ctx, c.Sender().ID, c.Chat().ID)
	} else {
		err = h.dispatcher.Leave(ctx, c.Sender().ID, c.Chat().ID)
	}
	if err != nil {
		return h.moveError(c, err)
	}
	return c.Respond()
}

// moveError maps the rejection taxonomy onto callback toasts.
func (h *GameHandler) moveError(c tele.Context, err error) error {
	switch {
	case errors.Is(err, dispatch.ErrNoActiveGame):
		return toast(c, "No game is running here.")
	case errors.Is(err, dispatch.ErrWrongGameKind):
		return toast(c, "That button belongs to another game.")
	case errors.Is(err, dispatch.ErrGameStillLive):
		return toast(c, "The round isn't over yet.")
	case errors.Is(err, game.ErrNotYourTurn):
		return toast(c, "Not your turn.")
	case errors.Is(err, game.ErrNotInGame):
		return toast(c, "You're not playing in this game.")
	case errors.Is(err, game.ErrInvalidPosition):
		return toast(c, "You can't pick that one.")
	case errors.Is(err, game.ErrGameOver):
		return toast(c, "The game is already over.")
	case errors.Is(err, rps.ErrActionsPending):
		return toast(c, "Pick your action first.")
	case errors.Is(err, rps.ErrChoiceAlreadyMade):
		return toast(c, "You already threw.")
	case errors.Is(err, rps.ErrActionAlreadySet):
		return toast(c, "Your action is locked in.")
	default:
		log.Error().Err(err).Msg("move failed")
		return toast(c, "Something went wrong.")
	}
}

func parsePos(args []string) (memory.Pos, bool) {
	if len(args) < 2 {
		return memory.Pos{}, false
	}
	row, err1 := strconv.Atoi(args[0])
	col, err2 := strconv.Atoi(args[1])
	if err1 != nil || err2 != nil {
		return memory.Pos{}, false
	}
	return memory.Pos{Row: row, Col: col}, true
}

func toast(c tele.Context, text string) error {
	return c.Respond(&tele.CallbackResponse{Text: text})
}
