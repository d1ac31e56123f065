//go:build integration

package repository

import (
	"context"
	"database/sql"
	"testing"

	"mlbdata/pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTeam(id int, name string) *models.Team {
	return &models.Team{
		TeamID: id,
		Name:   name,
	}
}

func TestTeamRepository_InsertIfAbsent(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	team := &models.Team{
		TeamID:       119,
		Name:         "Los Angeles Dodgers",
		Abbreviation: sql.NullString{String: "LAD", Valid: true},
		League:       sql.NullString{String: "National League", Valid: true},
		Division:     sql.NullString{String: "National League West", Valid: true},
	}

	err := db.Teams.InsertIfAbsent(ctx, db.Pool, team)
	require.NoError(t, err, "Should successfully insert team")

	retrieved, err := db.Teams.GetByTeamID(ctx, db.Pool, 119)
	require.NoError(t, err, "Should retrieve inserted team")
	assert.Equal(t, "Los Angeles Dodgers", retrieved.Name)
	assert.Equal(t, "LAD", retrieved.Abbreviation.String)
}

func TestTeamRepository_FirstObservationWins(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	err := db.Teams.InsertIfAbsent(ctx, db.Pool, testTeam(119, "Los Angeles Dodgers"))
	require.NoError(t, err)

	// A later payload with a different name must not modify the row
	err = db.Teams.InsertIfAbsent(ctx, db.Pool, testTeam(119, "LA Dodgers"))
	require.NoError(t, err, "Re-insert of existing id should be a no-op, not an error")

	retrieved, err := db.Teams.GetByTeamID(ctx, db.Pool, 119)
	require.NoError(t, err)
	assert.Equal(t, "Los Angeles Dodgers", retrieved.Name, "First observation is authoritative")

	count, err := db.Teams.Count(ctx, db.Pool)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestTeamRepository_List(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	for _, team := range []*models.Team{
		testTeam(119, "Los Angeles Dodgers"),
		testTeam(137, "San Francisco Giants"),
		testTeam(147, "New York Yankees"),
	} {
		require.NoError(t, db.Teams.InsertIfAbsent(ctx, db.Pool, team))
	}

	teams, err := db.Teams.List(ctx, db.Pool)
	require.NoError(t, err, "Should list teams")
	assert.Len(t, teams, 3)
}

func TestTeamRepository_GetNotFound(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	_, err := db.Teams.GetByTeamID(ctx, db.Pool, 99999)
	assert.Error(t, err, "Should return error for non-existent team")
}

func TestPlayerRepository_InsertIfAbsent(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	require.NoError(t, db.Teams.InsertIfAbsent(ctx, db.Pool, testTeam(119, "Los Angeles Dodgers")))

	player := &models.Player{
		PlayerID: 660271,
		FullName: "Shohei Ohtani",
		TeamID:   sql.NullInt32{Int32: 119, Valid: true},
		Position: sql.NullString{String: "Designated Hitter", Valid: true},
	}
	require.NoError(t, db.Players.InsertIfAbsent(ctx, db.Pool, player))

	retrieved, err := db.Players.GetByPlayerID(ctx, db.Pool, 660271)
	require.NoError(t, err)
	assert.Equal(t, "Shohei Ohtani", retrieved.FullName)
	assert.Equal(t, int32(119), retrieved.TeamID.Int32)
}

func TestPlayerRepository_TeamFrozenAtFirstSight(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	require.NoError(t, db.Teams.InsertIfAbsent(ctx, db.Pool, testTeam(119, "Los Angeles Dodgers")))
	require.NoError(t, db.Teams.InsertIfAbsent(ctx, db.Pool, testTeam(137, "San Francisco Giants")))

	first := &models.Player{
		PlayerID: 660271,
		FullName: "Shohei Ohtani",
		TeamID:   sql.NullInt32{Int32: 119, Valid: true},
	}
	require.NoError(t, db.Players.InsertIfAbsent(ctx, db.Pool, first))

	// Player appears for a different club later: association stays put
	traded := &models.Player{
		PlayerID: 660271,
		FullName: "Shohei Ohtani",
		TeamID:   sql.NullInt32{Int32: 137, Valid: true},
	}
	require.NoError(t, db.Players.InsertIfAbsent(ctx, db.Pool, traded))

	retrieved, err := db.Players.GetByPlayerID(ctx, db.Pool, 660271)
	require.NoError(t, err)
	assert.Equal(t, int32(119), retrieved.TeamID.Int32)
}
