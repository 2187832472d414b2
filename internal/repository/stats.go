// Package repository provides data access layer implementations.
package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"telegram-duel-bot/internal/model"
)

// Common errors for repository operations.
var (
	ErrPlayerNotFound = errors.New("player not found")
)

// StatsRepository persists per-player win/loss tallies, one row per player
// per game kind.
type StatsRepository struct {
	pool *pgxpool.Pool
}

// NewStatsRepository creates a new StatsRepository instance.
func NewStatsRepository(pool *pgxpool.Pool) *StatsRepository {
	return &StatsRepository{pool: pool}
}

// RecordResult writes one terminated game into the stats table: a win and a
// loss for a decided game, a loss for both players when no winner was
// attributed (tie or AFK reap).
func (r *StatsRepository) RecordResult(ctx context.Context, res *model.GameResult) error {
	winner, decided := res.Winner()
	loser, _ := res.Loser()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin stats transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if decided {
		if err := r.bump(ctx, tx, winner, res.Kind, 1, 0); err != nil {
			return err
		}
		if err := r.bump(ctx, tx, loser, res.Kind, 0, 1); err != nil {
			return err
		}
	} else {
		// Tie: the two-outcome stats model records a loss for both.
		if err := r.bump(ctx, tx, res.Player1, res.Kind, 0, 1); err != nil {
			return err
		}
		if err := r.bump(ctx, tx, res.Player2, res.Kind, 0, 1); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit stats transaction: %w", err)
	}
	return nil
}

// bump upserts one player's row for the game kind.
func (r *StatsRepository) bump(ctx context.Context, tx pgx.Tx, p model.Player, kind model.GameKind, wins, losses int64) error {
	const query = `
		INSERT INTO player_stats (user_id, username, game_kind, wins, losses, updated_at)
		VALUES ($1, $2, $3, $4, $5, NOW())
		ON CONFLICT (user_id, game_kind) DO UPDATE SET
			username = EXCLUDED.username,
			wins = player_stats.wins + EXCLUDED.wins,
			losses = player_stats.losses + EXCLUDED.losses,
			updated_at = NOW()
	`

	if _, err := tx.Exec(ctx, query, p.ID, p.DisplayName, string(kind), wins, losses); err != nil {
		return fmt.Errorf("failed to update stats for user %d: %w", p.ID, err)
	}
	return nil
}

// PlayerStats returns one player's row for a game kind.
// Returns ErrPlayerNotFound when the player never finished a game of it.
func (r *StatsRepository) PlayerStats(ctx context.Context, userID int64, kind model.GameKind) (*model.PlayerStats, error) {
	const query = `
		SELECT user_id, username, game_kind, wins, losses, updated_at
		FROM player_stats
		WHERE user_id = $1 AND game_kind = $2
	`

	var s model.PlayerStats
	err := r.pool.QueryRow(ctx, query, userID, string(kind)).Scan(
		&s.UserID,
		&s.Username,
		&s.GameKind,
		&s.Wins,
		&s.Losses,
		&s.Updated,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to get player stats: %w", err)
	}
	return &s, nil
}

// AllPlayerStats returns every game kind's row for one player.
func (r *StatsRepository) AllPlayerStats(ctx context.Context, userID int64) ([]*model.PlayerStats, error) {
	const query = `
		SELECT user_id, username, game_kind, wins, losses, updated_at
		FROM player_stats
		WHERE user_id = $1
		ORDER BY game_kind
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query player stats: %w", err)
	}
	defer rows.Close()

	return scanStats(rows)
}

// TopPlayers returns the leaderboard for a game kind ordered by wins, then
// fewest losses.
func (r *StatsRepository) TopPlayers(ctx context.Context, kind model.GameKind, limit int) ([]*model.PlayerStats, error) {
	const query = `
		SELECT user_id, username, game_kind, wins, losses, updated_at
		FROM player_stats
		WHERE game_kind = $1
		ORDER BY wins DESC, losses ASC, user_id ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	return scanStats(rows)
}

func scanStats(rows pgx.Rows) ([]*model.PlayerStats, error) {
	var out []*model.PlayerStats
	for rows.Next() {
		var s model.PlayerStats
		if err := rows.Scan(&s.UserID, &s.Username, &s.GameKind, &s.Wins, &s.Losses, &s.Updated); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		out = append(out, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read stats rows: %w", err)
	}
	return out, nil
}
