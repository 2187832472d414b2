// Package repository provides data access layer implementations.
// Tests use testcontainers-go to spin up a PostgreSQL container.
package repository

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"telegram-duel-bot/internal/model"
)

var (
	alice = model.Player{ID: 100, DisplayName: "alice"}
	bob   = model.Player{ID: 200, DisplayName: "bob"}
	carol = model.Player{ID: 300, DisplayName: "carol"}
)

// checkDockerAvailable checks if Docker is available and running
func checkDockerAvailable() bool {
	cmd := exec.Command("docker", "info")
	err := cmd.Run()
	return err == nil
}

// setupTestDB creates a PostgreSQL container and returns a connection pool.
// Skips the test if Docker is not available.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	if !checkDockerAvailable() {
		t.Skip("Docker is not available, skipping integration test")
	}

	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	err = runMigrations(ctx, pool)
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// runMigrations applies the database schema
func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS player_stats (
			user_id BIGINT NOT NULL,
			username VARCHAR(255) NOT NULL,
			game_kind VARCHAR(32) NOT NULL,
			wins BIGINT NOT NULL DEFAULT 0,
			losses BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (user_id, game_kind)
		)
	`)
	return err
}

func decidedResult(kind model.GameKind, winner model.Player) *model.GameResult {
	id := winner.ID
	return &model.GameResult{
		Kind:      kind,
		ChannelID: 1,
		Player1:   alice,
		Player2:   bob,
		WinnerID:  &id,
	}
}

func TestStatsRepository_RecordResult_Decided(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewStatsRepository(pool)
	ctx := context.Background()

	err := repo.RecordResult(ctx, decidedResult(model.KindTicTacToe, alice))
	require.NoError(t, err)

	winner, err := repo.PlayerStats(ctx, alice.ID, model.KindTicTacToe)
	require.NoError(t, err)
	assert.Equal(t, int64(1), winner.Wins)
	assert.Equal(t, int64(0), winner.Losses)
	assert.Equal(t, "alice", winner.Username)

	loser, err := repo.PlayerStats(ctx, bob.ID, model.KindTicTacToe)
	require.NoError(t, err)
	assert.Equal(t, int64(0), loser.Wins)
	assert.Equal(t, int64(1), loser.Losses)
}

func TestStatsRepository_RecordResult_TieIsLossForBoth(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewStatsRepository(pool)
	ctx := context.Background()

	err := repo.RecordResult(ctx, &model.GameResult{
		Kind:      model.KindRPS,
		ChannelID: 1,
		Player1:   alice,
		Player2:   bob,
	})
	require.NoError(t, err)

	for _, p := range []model.Player{alice, bob} {
		s, err := repo.PlayerStats(ctx, p.ID, model.KindRPS)
		require.NoError(t, err)
		assert.Equal(t, int64(0), s.Wins)
		assert.Equal(t, int64(1), s.Losses)
	}
}

func TestStatsRepository_RecordResult_Accumulates(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewStatsRepository(pool)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.RecordResult(ctx, decidedResult(model.KindMemory, alice)))
	}
	require.NoError(t, repo.RecordResult(ctx, decidedResult(model.KindMemory, bob)))

	s, err := repo.PlayerStats(ctx, alice.ID, model.KindMemory)
	require.NoError(t, err)
	assert.Equal(t, int64(3), s.Wins)
	assert.Equal(t, int64(1), s.Losses)
	assert.InDelta(t, 75.0, s.WinRate(), 0.01)
}

func TestStatsRepository_KindsAreIndependent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewStatsRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.RecordResult(ctx, decidedResult(model.KindMemory, alice)))
	require.NoError(t, repo.RecordResult(ctx, decidedResult(model.KindTicTacToe, bob)))

	_, err := repo.PlayerStats(ctx, alice.ID, model.KindRPS)
	assert.ErrorIs(t, err, ErrPlayerNotFound)

	all, err := repo.AllPlayerStats(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, model.KindMemory, all[0].GameKind)
	assert.Equal(t, model.KindTicTacToe, all[1].GameKind)
}

func TestStatsRepository_TopPlayers(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewStatsRepository(pool)
	ctx := context.Background()

	// alice ends 2W/0L, carol 1W/1L, bob 1W/3L.
	results := []*model.GameResult{
		decidedResult(model.KindTicTacToe, alice),
		decidedResult(model.KindTicTacToe, alice),
		{Kind: model.KindTicTacToe, ChannelID: 1, Player1: bob, Player2: carol, WinnerID: &carol.ID},
		{Kind: model.KindTicTacToe, ChannelID: 1, Player1: bob, Player2: carol, WinnerID: &bob.ID},
	}
	for _, res := range results {
		require.NoError(t, repo.RecordResult(ctx, res))
	}

	top, err := repo.TopPlayers(ctx, model.KindTicTacToe, 10)
	require.NoError(t, err)
	require.Len(t, top, 3)
	assert.Equal(t, alice.ID, top[0].UserID)
	assert.Equal(t, carol.ID, top[1].UserID, "fewer losses rank above equal wins")
	assert.Equal(t, bob.ID, top[2].UserID)

	top, err = repo.TopPlayers(ctx, model.KindTicTacToe, 1)
	require.NoError(t, err)
	require.Len(t, top, 1)
	assert.Equal(t, alice.ID, top[0].UserID)
}

func TestStatsRepository_UsernameRefreshedOnWrite(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()
	repo := NewStatsRepository(pool)
	ctx := context.Background()

	require.NoError(t, repo.RecordResult(ctx, decidedResult(model.KindRPS, alice)))

	renamed := model.Player{ID: alice.ID, DisplayName: "alice2"}
	id := renamed.ID
	require.NoError(t, repo.RecordResult(ctx, &model.GameResult{
		Kind:      model.KindRPS,
		ChannelID: 1,
		Player1:   renamed,
		Player2:   bob,
		WinnerID:  &id,
	}))

	s, err := repo.PlayerStats(ctx, alice.ID, model.KindRPS)
	require.NoError(t, err)
	assert.Equal(t, "alice2", s.Username)
	assert.Equal(t, int64(2), s.Wins)
}
