//go:build integration

package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"mlbdata/pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLine(gameID, playerID int) *models.BoxscoreLine {
	return &models.BoxscoreLine{
		GameID:   gameID,
		PlayerID: playerID,
		TeamID:   119,
		AtBats:   4,
		Hits:     2,
		HomeRuns: 1,
		RBI:      2,
		Walks:    1,
	}
}

func setupBoxscoreFixtures(t *testing.T, ctx context.Context, db *Database) {
	insertTestTeams(t, ctx, db)
	require.NoError(t, db.Games.Upsert(ctx, db.Pool, testGame(700001, 119, 137)))
	require.NoError(t, db.Players.InsertIfAbsent(ctx, db.Pool, &models.Player{
		PlayerID: 660271,
		FullName: "Shohei Ohtani",
		TeamID:   sql.NullInt32{Int32: 119, Valid: true},
	}))
}

func TestBoxscoreRepository_Upsert(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)
	setupBoxscoreFixtures(t, ctx, db)

	line := testLine(700001, 660271)
	require.NoError(t, db.Boxscore.Upsert(ctx, db.Pool, line))
	assert.NotZero(t, line.ID, "Insert path should populate the synthetic id")

	retrieved, err := db.Boxscore.GetLine(ctx, db.Pool, 700001, 660271)
	require.NoError(t, err)
	assert.Equal(t, 4, retrieved.AtBats)
	assert.Equal(t, 1, retrieved.HomeRuns)
}

func TestBoxscoreRepository_UpdateOverwritesAllFields(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)
	setupBoxscoreFixtures(t, ctx, db)

	require.NoError(t, db.Boxscore.Upsert(ctx, db.Pool, testLine(700001, 660271)))

	// Correction drops the home run; fields absent from the source are zero
	// and must land as zero.
	corrected := &models.BoxscoreLine{
		GameID:   700001,
		PlayerID: 660271,
		TeamID:   119,
		AtBats:   4,
		Hits:     1,
	}
	require.NoError(t, db.Boxscore.Upsert(ctx, db.Pool, corrected))

	retrieved, err := db.Boxscore.GetLine(ctx, db.Pool, 700001, 660271)
	require.NoError(t, err)
	assert.Equal(t, 1, retrieved.Hits)
	assert.Equal(t, 0, retrieved.HomeRuns)
	assert.Equal(t, 0, retrieved.RBI)
	assert.Equal(t, 0, retrieved.Walks)

	count, err := db.Boxscore.CountByGame(ctx, db.Pool, 700001)
	require.NoError(t, err)
	assert.Equal(t, 1, count, "One row per (game, player)")
}

func TestBoxscoreRepository_GameDate(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)
	setupBoxscoreFixtures(t, ctx, db)

	line := testLine(700001, 660271)
	line.GameDate = sql.NullTime{Time: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), Valid: true}
	require.NoError(t, db.Boxscore.Upsert(ctx, db.Pool, line))

	retrieved, err := db.Boxscore.GetLine(ctx, db.Pool, 700001, 660271)
	require.NoError(t, err)
	require.True(t, retrieved.GameDate.Valid)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), retrieved.GameDate.Time)
}

func TestBoxscoreRepository_ListByGame(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)
	setupBoxscoreFixtures(t, ctx, db)
	require.NoError(t, db.Players.InsertIfAbsent(ctx, db.Pool, &models.Player{
		PlayerID: 605141,
		FullName: "Mookie Betts",
	}))

	require.NoError(t, db.Boxscore.Upsert(ctx, db.Pool, testLine(700001, 660271)))
	require.NoError(t, db.Boxscore.Upsert(ctx, db.Pool, testLine(700001, 605141)))

	lines, err := db.Boxscore.ListByGame(ctx, db.Pool, 700001)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, 605141, lines[0].PlayerID, "Ordered by player_id")
}

func TestRawPayloadRepository_AppendOnly(t *testing.T) {
	db, ctx := setupTestDB(t)
	defer teardownTestDB(t, db)

	blob, err := json.Marshal(map[string]int{"game_id": 700001})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		payload := &models.RawPayload{
			GameID: 700001,
			Kind:   models.KindCombined,
			Data:   blob,
		}
		require.NoError(t, db.RawPayloads.Append(ctx, db.Pool, payload))
		assert.NotZero(t, payload.ID)
		assert.False(t, payload.CapturedAt.IsZero())
	}

	count, err := db.RawPayloads.CountByGame(ctx, db.Pool, 700001)
	require.NoError(t, err)
	assert.Equal(t, 2, count, "Reprocessing appends, never replaces")
}
