package repository

import (
	"context"
	"fmt"

	"mlbdata/pipeline/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// BoxscoreRepository handles per-player batting line database operations
type BoxscoreRepository struct {
	db *Database
}

// Upsert writes one batting line keyed by (game_id, player_id).
//
// It tries an UPDATE first and falls back to INSERT when zero rows were
// affected. Compared with an existence check this saves a round trip on
// reload, the common case, at the cost of one wasted statement on first-ever
// insert. Every numeric field is overwritten from the incoming line: a stat
// absent from the source payload lands as zero.
func (r *BoxscoreRepository) Upsert(ctx context.Context, q Querier, line *models.BoxscoreLine) error {
	updateQuery := `
		UPDATE boxscore SET
			team_id = $3,
			at_bats = $4,
			runs = $5,
			hits = $6,
			doubles = $7,
			triples = $8,
			home_runs = $9,
			rbi = $10,
			walks = $11,
			strikeouts = $12,
			hit_by_pitch = $13,
			sacrifice_flies = $14,
			sacrifice_bunts = $15,
			game_date = $16
		WHERE game_id = $1 AND player_id = $2
	`

	tag, err := q.Exec(
		ctx, updateQuery,
		line.GameID, line.PlayerID, line.TeamID,
		line.AtBats, line.Runs, line.Hits, line.Doubles, line.Triples,
		line.HomeRuns, line.RBI, line.Walks, line.Strikeouts,
		line.HitByPitch, line.SacrificeFlies, line.SacrificeBunts,
		line.GameDate,
	)
	if err != nil {
		return fmt.Errorf("failed to update boxscore line: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	insertQuery := `
		INSERT INTO boxscore (
			game_id, player_id, team_id,
			at_bats, runs, hits, doubles, triples,
			home_runs, rbi, walks, strikeouts,
			hit_by_pitch, sacrifice_flies, sacrifice_bunts, game_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id
	`

	err = q.QueryRow(
		ctx, insertQuery,
		line.GameID, line.PlayerID, line.TeamID,
		line.AtBats, line.Runs, line.Hits, line.Doubles, line.Triples,
		line.HomeRuns, line.RBI, line.Walks, line.Strikeouts,
		line.HitByPitch, line.SacrificeFlies, line.SacrificeBunts,
		line.GameDate,
	).Scan(&line.ID)
	if err != nil {
		return fmt.Errorf("failed to insert boxscore line: %w", err)
	}

	log.Debug().
		Int("game_id", line.GameID).
		Int("player_id", line.PlayerID).
		Msg("Boxscore line created")

	return nil
}

// GetLine retrieves one batting line by its composite natural key
func (r *BoxscoreRepository) GetLine(ctx context.Context, q Querier, gameID, playerID int) (*models.BoxscoreLine, error) {
	query := `
		SELECT id, game_id, player_id, team_id,
		       at_bats, runs, hits, doubles, triples,
		       home_runs, rbi, walks, strikeouts,
		       hit_by_pitch, sacrifice_flies, sacrifice_bunts,
		       game_date, created_at
		FROM boxscore
		WHERE game_id = $1 AND player_id = $2
	`

	var line models.BoxscoreLine
	err := q.QueryRow(ctx, query, gameID, playerID).Scan(
		&line.ID, &line.GameID, &line.PlayerID, &line.TeamID,
		&line.AtBats, &line.Runs, &line.Hits, &line.Doubles, &line.Triples,
		&line.HomeRuns, &line.RBI, &line.Walks, &line.Strikeouts,
		&line.HitByPitch, &line.SacrificeFlies, &line.SacrificeBunts,
		&line.GameDate, &line.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("boxscore line not found: game_id=%d, player_id=%d", gameID, playerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get boxscore line: %w", err)
	}

	return &line, nil
}

// ListByGame retrieves all batting lines for a game
func (r *BoxscoreRepository) ListByGame(ctx context.Context, q Querier, gameID int) ([]*models.BoxscoreLine, error) {
	query := `
		SELECT id, game_id, player_id, team_id,
		       at_bats, runs, hits, doubles, triples,
		       home_runs, rbi, walks, strikeouts,
		       hit_by_pitch, sacrifice_flies, sacrifice_bunts,
		       game_date, created_at
		FROM boxscore
		WHERE game_id = $1
		ORDER BY player_id
	`

	rows, err := q.Query(ctx, query, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to list boxscore lines: %w", err)
	}
	defer rows.Close()

	var lines []*models.BoxscoreLine
	for rows.Next() {
		var line models.BoxscoreLine
		err := rows.Scan(
			&line.ID, &line.GameID, &line.PlayerID, &line.TeamID,
			&line.AtBats, &line.Runs, &line.Hits, &line.Doubles, &line.Triples,
			&line.HomeRuns, &line.RBI, &line.Walks, &line.Strikeouts,
			&line.HitByPitch, &line.SacrificeFlies, &line.SacrificeBunts,
			&line.GameDate, &line.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan boxscore line: %w", err)
		}
		lines = append(lines, &line)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating boxscore lines: %w", err)
	}

	return lines, nil
}

// CountByGame returns the number of batting lines stored for a game
func (r *BoxscoreRepository) CountByGame(ctx context.Context, q Querier, gameID int) (int, error) {
	query := `SELECT COUNT(*) FROM boxscore WHERE game_id = $1`

	var count int
	err := q.QueryRow(ctx, query, gameID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count boxscore lines: %w", err)
	}

	return count, nil
}
