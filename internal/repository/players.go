package repository

import (
	"context"
	"fmt"

	"mlbdata/pipeline/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// PlayerRepository handles player database operations
type PlayerRepository struct {
	db *Database
}

// InsertIfAbsent inserts a player if no row exists for its player_id.
// Existing rows are never modified, so the team association captured on
// first sight is the one that sticks.
func (r *PlayerRepository) InsertIfAbsent(ctx context.Context, q Querier, player *models.Player) error {
	query := `
		INSERT INTO players (player_id, player_name, team_id, position)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (player_id) DO NOTHING
	`

	tag, err := q.Exec(
		ctx, query,
		player.PlayerID, player.FullName, player.TeamID, player.Position,
	)
	if err != nil {
		return fmt.Errorf("failed to insert player: %w", err)
	}

	if tag.RowsAffected() > 0 {
		log.Debug().
			Int("player_id", player.PlayerID).
			Str("name", player.FullName).
			Msg("Player created")
	}

	return nil
}

// GetByPlayerID retrieves a player by its MLB person id
func (r *PlayerRepository) GetByPlayerID(ctx context.Context, q Querier, playerID int) (*models.Player, error) {
	query := `
		SELECT player_id, player_name, team_id, position, created_at
		FROM players
		WHERE player_id = $1
	`

	var player models.Player
	err := q.QueryRow(ctx, query, playerID).Scan(
		&player.PlayerID, &player.FullName, &player.TeamID,
		&player.Position, &player.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("player not found: player_id=%d", playerID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}

	return &player, nil
}

// ListByTeam retrieves players first seen with the given team
func (r *PlayerRepository) ListByTeam(ctx context.Context, q Querier, teamID int) ([]*models.Player, error) {
	query := `
		SELECT player_id, player_name, team_id, position, created_at
		FROM players
		WHERE team_id = $1
		ORDER BY player_name
	`

	rows, err := q.Query(ctx, query, teamID)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []*models.Player
	for rows.Next() {
		var player models.Player
		err := rows.Scan(
			&player.PlayerID, &player.FullName, &player.TeamID,
			&player.Position, &player.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, &player)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating players: %w", err)
	}

	return players, nil
}

// Count returns the total number of players
func (r *PlayerRepository) Count(ctx context.Context, q Querier) (int, error) {
	query := `SELECT COUNT(*) FROM players`

	var count int
	err := q.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count players: %w", err)
	}

	return count, nil
}
