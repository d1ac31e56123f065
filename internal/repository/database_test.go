//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Integration tests for database operations
// Run with: go test -v -tags=integration ./internal/repository/...

func setupTestDB(t *testing.T) (*Database, context.Context) {
	ctx := context.Background()

	cfg := Config{
		Host:     "localhost",
		Port:     "5432",
		Database: "mlb_data_test",
		User:     "mlb_user",
		Password: "mlb_password",
		SSLMode:  "disable",
	}

	db, err := NewDatabase(ctx, cfg)
	require.NoError(t, err, "Failed to connect to test database")

	err = db.CreateSchema(ctx)
	require.NoError(t, err, "Failed to create schema")

	// Each test starts from empty tables
	_, err = db.Pool.Exec(ctx, `TRUNCATE raw_json_data, boxscore, players, games, teams RESTART IDENTITY CASCADE`)
	require.NoError(t, err, "Failed to truncate tables")

	return db, ctx
}

func teardownTestDB(t *testing.T, db *Database) {
	db.Close()
}

func TestDatabaseConnection(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	// Test health check
	err := db.Health(ctx)
	assert.NoError(t, err, "Database health check should pass")

	// Test stats
	stats := db.PoolStats()
	assert.NotNil(t, stats, "Should return connection pool stats")
	assert.GreaterOrEqual(t, stats["max_conns"].(int32), int32(1), "Should have at least 1 max connection")
}

func TestDatabasePing(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	// Ping with timeout
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err := db.Pool.Ping(ctx)
	assert.NoError(t, err, "Should successfully ping database")
}

func TestInTx_RollbackOnError(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	sentinel := assert.AnError
	err := db.InTx(ctx, func(s *Session) error {
		if err := s.InsertTeamIfAbsent(ctx, testTeam(119, "Los Angeles Dodgers")); err != nil {
			return err
		}
		return sentinel
	})
	require.ErrorIs(t, err, sentinel, "Error from fn should come back unchanged")

	count, err := db.Teams.Count(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, 0, count, "Failed transaction should leave nothing behind")
}

func TestInTx_Commit(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	err := db.InTx(ctx, func(s *Session) error {
		return s.InsertTeamIfAbsent(ctx, testTeam(119, "Los Angeles Dodgers"))
	})
	require.NoError(t, err)

	count, err := db.Teams.Count(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
