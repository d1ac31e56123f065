package repository

import (
	"context"
	"fmt"

	"mlbdata/pipeline/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// GameRepository handles game database operations
type GameRepository struct {
	db *Database
}

// Upsert inserts or updates the single current row for a game id.
//
// The update branch re-writes every mutable column, including home_team_id
// and away_team_id; a row inserted with placeholder team ids must self-heal
// on reload. Metadata columns coalesce against the prior row so an incoming
// NULL never erases metadata learned from an earlier payload or enrichment.
func (r *GameRepository) Upsert(ctx context.Context, q Querier, game *models.Game) error {
	query := `
		INSERT INTO games (
			game_id, game_date, home_team_id, away_team_id,
			home_score, away_score, inning, inning_state, game_status,
			game_type, series_description, official_date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (game_id) DO UPDATE SET
			game_date = EXCLUDED.game_date,
			home_team_id = EXCLUDED.home_team_id,
			away_team_id = EXCLUDED.away_team_id,
			home_score = EXCLUDED.home_score,
			away_score = EXCLUDED.away_score,
			inning = EXCLUDED.inning,
			inning_state = EXCLUDED.inning_state,
			game_status = EXCLUDED.game_status,
			game_type = COALESCE(EXCLUDED.game_type, games.game_type),
			series_description = COALESCE(EXCLUDED.series_description, games.series_description),
			official_date = COALESCE(EXCLUDED.official_date, games.official_date)
		RETURNING created_at
	`

	err := q.QueryRow(
		ctx, query,
		game.GameID, game.GameDate, game.HomeTeamID, game.AwayTeamID,
		game.HomeScore, game.AwayScore, game.Inning, game.InningHalf, string(game.Status),
		game.GameType, game.SeriesDescription, game.OfficialDate,
	).Scan(&game.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to upsert game: %w", err)
	}

	log.Debug().
		Int("game_id", game.GameID).
		Str("status", string(game.Status)).
		Int("home_score", game.HomeScore).
		Int("away_score", game.AwayScore).
		Msg("Game upserted")

	return nil
}

// GetByGameID retrieves a game by its MLB gamePk
func (r *GameRepository) GetByGameID(ctx context.Context, q Querier, gameID int) (*models.Game, error) {
	query := `
		SELECT game_id, game_date, home_team_id, away_team_id,
		       home_score, away_score, inning, inning_state, game_status,
		       game_type, series_description, official_date, created_at
		FROM games
		WHERE game_id = $1
	`

	var game models.Game
	var status string
	err := q.QueryRow(ctx, query, gameID).Scan(
		&game.GameID, &game.GameDate, &game.HomeTeamID, &game.AwayTeamID,
		&game.HomeScore, &game.AwayScore, &game.Inning, &game.InningHalf, &status,
		&game.GameType, &game.SeriesDescription, &game.OfficialDate, &game.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("game not found: game_id=%d", gameID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game: %w", err)
	}

	game.Status = models.GameStatus(status)
	return &game, nil
}

// GetByStatus retrieves games by status
func (r *GameRepository) GetByStatus(ctx context.Context, q Querier, status models.GameStatus) ([]*models.Game, error) {
	query := `
		SELECT game_id, game_date, home_team_id, away_team_id,
		       home_score, away_score, inning, inning_state, game_status,
		       game_type, series_description, official_date, created_at
		FROM games
		WHERE game_status = $1
		ORDER BY game_date
	`

	rows, err := q.Query(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("failed to get games by status: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		var game models.Game
		var st string
		err := rows.Scan(
			&game.GameID, &game.GameDate, &game.HomeTeamID, &game.AwayTeamID,
			&game.HomeScore, &game.AwayScore, &game.Inning, &game.InningHalf, &st,
			&game.GameType, &game.SeriesDescription, &game.OfficialDate, &game.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		game.Status = models.GameStatus(st)
		games = append(games, &game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return games, nil
}

// ListMissingMetadata retrieves games whose game_type is still unknown,
// candidates for a later enrichment pass.
func (r *GameRepository) ListMissingMetadata(ctx context.Context, q Querier) ([]*models.Game, error) {
	query := `
		SELECT game_id, game_date, home_team_id, away_team_id,
		       home_score, away_score, inning, inning_state, game_status,
		       game_type, series_description, official_date, created_at
		FROM games
		WHERE game_type IS NULL
		ORDER BY game_date
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list games missing metadata: %w", err)
	}
	defer rows.Close()

	var games []*models.Game
	for rows.Next() {
		var game models.Game
		var st string
		err := rows.Scan(
			&game.GameID, &game.GameDate, &game.HomeTeamID, &game.AwayTeamID,
			&game.HomeScore, &game.AwayScore, &game.Inning, &game.InningHalf, &st,
			&game.GameType, &game.SeriesDescription, &game.OfficialDate, &game.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game: %w", err)
		}
		game.Status = models.GameStatus(st)
		games = append(games, &game)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating games: %w", err)
	}

	return games, nil
}

// Count returns the total number of games
func (r *GameRepository) Count(ctx context.Context, q Querier) (int, error) {
	query := `SELECT COUNT(*) FROM games`

	var count int
	err := q.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count games: %w", err)
	}

	return count, nil
}
