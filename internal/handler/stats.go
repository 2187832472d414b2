package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-duel-bot/internal/model"
	"telegram-duel-bot/internal/repository"
)

const leaderboardSize = 10

// statsKinds fixes the display order of the per-game tables.
var statsKinds = []model.GameKind{
	model.KindMemory,
	model.KindTicTacToe,
	model.KindRPS,
	model.KindRPSAction,
}

// kindAliases maps /top arguments onto game kinds.
var kindAliases = map[string]model.GameKind{
	"memory":    model.KindMemory,
	"tictactoe": model.KindTicTacToe,
	"ttt":       model.KindTicTacToe,
	"rps":       model.KindRPS,
	"rpsaction": model.KindRPSAction,
}

// StatsHandler serves the leaderboard and personal stats commands.
type StatsHandler struct {
	stats *repository.StatsRepository
}

// NewStatsHandler creates a new StatsHandler.
func NewStatsHandler(stats *repository.StatsRepository) *StatsHandler {
	return &StatsHandler{stats: stats}
}

func kindLabel(kind model.GameKind) string {
	switch kind {
	case model.KindMemory:
		return "🧠 Memory Match"
	case model.KindTicTacToe:
		return "⚔️ Tic Tac Toe"
	case model.KindRPS:
		return "✊ Rock Paper Scissors"
	case model.KindRPSAction:
		return "🎭 RPS Action"
	}
	return string(kind)
}

// HandleTop handles /top [game]: the leaderboard for one game kind.
func (h *StatsHandler) HandleTop(c tele.Context) error {
	kind := model.KindMemory
	if args := c.Args(); len(args) > 0 {
		k, ok := kindAliases[strings.ToLower(args[0])]
		if !ok {
			return c.Reply("🤔 Unknown game. Try: memory, tictactoe, rps, rpsaction.")
		}
		kind = k
	}

	rows, err := h.stats.TopPlayers(context.Background(), kind, leaderboardSize)
	if err != nil {
		log.Error().Err(err).Str("game_kind", string(kind)).Msg("failed to load leaderboard")
		return c.Reply("❌ Couldn't load the leaderboard, try again.")
	}
	if len(rows) == 0 {
		return c.Reply(fmt.Sprintf("📭 Nobody has finished a %s game yet.", kindLabel(kind)))
	}

	medals := []string{"🥇", "🥈", "🥉"}
	var sb strings.Builder
	fmt.Fprintf(&sb, "🏆 *%s — Top %d*\n\n", kindLabel(kind), leaderboardSize)
	for i, s := range rows {
		rank := fmt.Sprintf("%d.", i+1)
		if i < len(medals) {
			rank = medals[i]
		}
		fmt.Fprintf(&sb, "%s %s — %dW/%dL (%.0f%%)\n", rank, s.Username, s.Wins, s.Losses, s.WinRate())
	}
	return c.Reply(sb.String(), tele.ModeMarkdown)
}

// HandleMyStats handles /mystats: the caller's record across every game.
func (h *StatsHandler) HandleMyStats(c tele.Context) error {
	sender := c.Sender()
	if sender == nil {
		return nil
	}

	rows, err := h.stats.AllPlayerStats(context.Background(), sender.ID)
	if err != nil && !errors.Is(err, repository.ErrPlayerNotFound) {
		log.Error().Err(err).Int64("user_id", sender.ID).Msg("failed to load player stats")
		return c.Reply("❌ Couldn't load your stats, try again.")
	}
	if len(rows) == 0 {
		return c.Reply("📭 You haven't finished a game yet. Challenge someone!")
	}

	byKind := make(map[model.GameKind]*model.PlayerStats, len(rows))
	for _, s := range rows {
		byKind[s.GameKind] = s
	}

	var sb strings.Builder
	sb.WriteString("📊 *Your record*\n\n")
	for _, kind := range statsKinds {
		s, ok := byKind[kind]
		if !ok {
			continue
		}
		fmt.Fprintf(&sb, "%s: %dW/%dL (%.0f%%)\n", kindLabel(kind), s.Wins, s.Losses, s.WinRate())
	}
	return c.Reply(sb.String(), tele.ModeMarkdown)
}
