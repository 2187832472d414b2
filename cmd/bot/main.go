// Package main is the entry point for the Telegram duel bot.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"telegram-duel-bot/internal/arena"
	"telegram-duel-bot/internal/bot"
	"telegram-duel-bot/internal/config"
	"telegram-duel-bot/internal/dispatch"
	"telegram-duel-bot/internal/game"
	"telegram-duel-bot/internal/game/memory"
	"telegram-duel-bot/internal/game/rps"
	"telegram-duel-bot/internal/game/tictactoe"
	"telegram-duel-bot/internal/gif"
	"telegram-duel-bot/internal/model"
	"telegram-duel-bot/internal/pkg/db"
	"telegram-duel-bot/internal/pkg/timer"
	"telegram-duel-bot/internal/render"
	"telegram-duel-bot/internal/repository"
)

func main() {
	// Configure zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	// Load configuration
	cfg, err := config.Load("config")
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log.Info().Msg("Configuration loaded successfully")

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize database connection pool
	dbPool, err := db.NewPool(ctx, &cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer dbPool.Close()

	// Run database migrations
	if err := runMigrations(ctx, dbPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize the stats repository
	statsRepo := repository.NewStatsRepository(dbPool.Pool)

	// Initialize game registry and register games
	gameRegistry := game.NewRegistry()
	if err := registerGames(gameRegistry); err != nil {
		log.Fatal().Err(err).Msg("Failed to register games")
	}

	log.Info().
		Int("game_count", gameRegistry.Count()).
		Strs("games", gameRegistry.Commands()).
		Msg("Games registered")

	// The telebot instance is built first so the renderer can post through it.
	teleBot, err := bot.NewTelebot(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Telegram bot")
	}

	renderer := render.New(teleBot)

	var gifs dispatch.GIFProvider
	if cfg.Tenor.APIKey != "" {
		gifs = gif.New(cfg.Tenor.APIKey)
		log.Info().Msg("Tenor GIF lookup enabled")
	}

	dispatcher := dispatch.New(gameRegistry, renderer, statsRepo, gifs, timer.NewClock(), cfg.Games)

	// Start the AFK reaper
	reaper := arena.NewReaper(dispatcher.Sessions(), cfg.Games.AFKInterval, cfg.Games.AFKThreshold, dispatcher.Reap)
	go reaper.Run(ctx)
	log.Info().
		Dur("interval", cfg.Games.AFKInterval).
		Dur("threshold", cfg.Games.AFKThreshold).
		Msg("AFK reaper started")

	// Create bot dependencies
	deps := &bot.Dependencies{
		Config:       cfg,
		Dispatcher:   dispatcher,
		GameRegistry: gameRegistry,
		Stats:        statsRepo,
	}

	telegramBot, err := bot.New(deps, teleBot)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create bot")
	}

	// Setup graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Start bot in a goroutine
	go func() {
		log.Info().Msg("Bot is starting...")
		telegramBot.Start()
	}()

	// Wait for shutdown signal
	sig := <-sigChan
	log.Info().Str("signal", sig.String()).Msg("Received shutdown signal")

	// Graceful shutdown: stop the reaper, then the poller.
	cancel()
	telegramBot.Stop()
	log.Info().Msg("Bot stopped gracefully")
}

// registerGames wires the four duel games into the registry.
func registerGames(r *game.Registry) error {
	descriptors := []*game.Descriptor{
		{
			Kind:        model.KindMemory,
			Name:        "Memory Match",
			Command:     "/memory",
			Description: "find emoji pairs, best memory wins",
			New: func(p1, p2 model.Player, params game.Params) (game.Engine, error) {
				category := params.Category
				if category == "" {
					category = memory.RandomCategory()
				}
				rows, cols := params.Rows, params.Cols
				if rows == 0 || cols == 0 {
					rows, cols = memory.DefaultRows, memory.DefaultCols
				}
				return memory.New(p1, p2, category, rows, cols)
			},
		},
		{
			Kind:        model.KindTicTacToe,
			Name:        "Tic Tac Toe",
			Command:     "/tictactoe",
			Description: "three in a row wins",
			New: func(p1, p2 model.Player, _ game.Params) (game.Engine, error) {
				return tictactoe.New(p1, p2), nil
			},
		},
		{
			Kind:        model.KindRPS,
			Name:        "Rock Paper Scissors",
			Command:     "/rps",
			Description: "the classic throw-off",
			New: func(p1, p2 model.Player, _ game.Params) (game.Engine, error) {
				return rps.New(p1, p2), nil
			},
		},
		{
			Kind:        model.KindRPSAction,
			Name:        "RPS Action",
			Command:     "/rpsaction",
			Description: "rock paper scissors with a forfeit for the loser",
			New: func(p1, p2 model.Player, _ game.Params) (game.Engine, error) {
				return rps.NewAction(p1, p2), nil
			},
		},
	}

	for _, d := range descriptors {
		if err := r.Register(d); err != nil {
			return err
		}
	}
	return nil
}

// runMigrations executes database migrations.
func runMigrations(ctx context.Context, pool *db.Pool) error {
	log.Info().Msg("Running database migrations...")

	// Migration 1: player stats table, one row per player per game kind
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS player_stats (
			user_id BIGINT NOT NULL,
			username VARCHAR(255) NOT NULL,
			game_kind VARCHAR(50) NOT NULL,
			wins BIGINT NOT NULL DEFAULT 0,
			losses BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, game_kind)
		);
		CREATE INDEX IF NOT EXISTS idx_player_stats_leaderboard ON player_stats(game_kind, wins DESC, losses ASC);
	`)
	if err != nil {
		return err
	}
	log.Info().Msg("Migration 1: player_stats table created")

	log.Info().Msg("All migrations completed successfully")
	return nil
}
