package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	tele "gopkg.in/telebot.v3"

	"telegram-duel-bot/internal/config"
	"telegram-duel-bot/internal/dispatch"
	"telegram-duel-bot/internal/game"
	"telegram-duel-bot/internal/game/memory"
	"telegram-duel-bot/internal/handler"
	"telegram-duel-bot/internal/repository"
)

// Bot wraps the telebot instance with application dependencies.
type Bot struct {
	bot          *tele.Bot
	cfg          *config.Config
	dispatcher   *dispatch.Dispatcher
	gameRegistry *game.Registry

	gameHandler  *handler.GameHandler
	statsHandler *handler.StatsHandler
}

// Dependencies holds everything the bot handlers need.
type Dependencies struct {
	Config       *config.Config
	Dispatcher   *dispatch.Dispatcher
	GameRegistry *game.Registry
	Stats        *repository.StatsRepository
}

// New creates a new Bot instance with the given dependencies.
func New(deps *Dependencies, teleBot *tele.Bot) (*Bot, error) {
	if teleBot == nil {
		return nil, fmt.Errorf("telebot instance is required")
	}

	b := &Bot{
		bot:          teleBot,
		cfg:          deps.Config,
		dispatcher:   deps.Dispatcher,
		gameRegistry: deps.GameRegistry,
	}

	b.gameHandler = handler.NewGameHandler(deps.Dispatcher)
	b.statsHandler = handler.NewStatsHandler(deps.Stats)

	b.registerMiddleware()
	b.registerHandlers()

	return b, nil
}

// NewTelebot builds the underlying telebot instance from configuration. It is
// separate from New so the renderer can be constructed on the same instance.
func NewTelebot(cfg *config.Config) (*tele.Bot, error) {
	if cfg.Bot.Token == "" {
		return nil, fmt.Errorf("bot token is required")
	}

	pref := tele.Settings{
		Token:  cfg.Bot.Token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	}

	teleBot, err := tele.NewBot(pref)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}
	return teleBot, nil
}

// registerMiddleware registers all middleware.
func (b *Bot) registerMiddleware() {
	b.bot.Use(RecoveryMiddleware())
	b.bot.Use(WhitelistMiddleware(b.cfg))
	b.bot.Use(LoggingMiddleware())
}

// registerHandlers registers all command and callback handlers.
func (b *Bot) registerHandlers() {
	b.bot.Handle("/start", b.handleStart)
	b.bot.Handle("/help", b.handleStart)

	// Challenge commands
	b.bot.Handle("/memory", b.gameHandler.HandleMemory)
	b.bot.Handle("/tictactoe", b.gameHandler.HandleTicTacToe)
	b.bot.Handle("/rps", b.gameHandler.HandleRPS)
	b.bot.Handle("/rpsaction", b.gameHandler.HandleRPSAction)

	// Game lifecycle
	b.bot.Handle("/endgame", b.gameHandler.HandleEndGame)

	// Stats
	b.bot.Handle("/top", b.statsHandler.HandleTop)
	b.bot.Handle("/mystats", b.statsHandler.HandleMyStats)

	// All board buttons arrive here and are routed by their unique prefix.
	b.bot.Handle(tele.OnCallback, b.gameHandler.HandleCallback)
}

// handleStart lists the available games and commands.
func (b *Bot) handleStart(c tele.Context) error {
	var sb strings.Builder
	sb.WriteString("🎮 *Duel Bot*\nChallenge someone by replying to their message:\n\n")
	for _, d := range b.gameRegistry.All() {
		fmt.Fprintf(&sb, "%s — %s\n", d.Command, d.Description)
	}
	sb.WriteString("\n/endgame — end the current game by mutual agreement")
	sb.WriteString("\n/top [game] — leaderboard")
	sb.WriteString("\n/mystats — your record")
	sb.WriteString(fmt.Sprintf("\n\n🃏 Memory categories: %s", strings.Join(memory.CategoryNames(), ", ")))
	return c.Reply(sb.String(), tele.ModeMarkdown)
}

// Start starts the bot polling.
func (b *Bot) Start() {
	log.Info().Msg("Starting bot...")
	b.bot.Start()
}

// Stop stops the bot gracefully.
func (b *Bot) Stop() {
	log.Info().Msg("Stopping bot...")
	b.bot.Stop()
}

// GetBot returns the underlying telebot instance.
func (b *Bot) GetBot() *tele.Bot {
	return b.bot
}
