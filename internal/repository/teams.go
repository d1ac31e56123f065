package repository

import (
	"context"
	"fmt"

	"mlbdata/pipeline/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog/log"
)

// TeamRepository handles team database operations
type TeamRepository struct {
	db *Database
}

// InsertIfAbsent inserts a team if no row exists for its team_id. Existing
// rows are never modified: first-seen team metadata is authoritative.
func (r *TeamRepository) InsertIfAbsent(ctx context.Context, q Querier, team *models.Team) error {
	query := `
		INSERT INTO teams (team_id, team_name, abbreviation, league, division)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (team_id) DO NOTHING
	`

	tag, err := q.Exec(
		ctx, query,
		team.TeamID, team.Name, team.Abbreviation, team.League, team.Division,
	)
	if err != nil {
		return fmt.Errorf("failed to insert team: %w", err)
	}

	if tag.RowsAffected() > 0 {
		log.Debug().
			Int("team_id", team.TeamID).
			Str("name", team.Name).
			Msg("Team created")
	}

	return nil
}

// GetByTeamID retrieves a team by its MLB team id
func (r *TeamRepository) GetByTeamID(ctx context.Context, q Querier, teamID int) (*models.Team, error) {
	query := `
		SELECT team_id, team_name, abbreviation, league, division, created_at
		FROM teams
		WHERE team_id = $1
	`

	var team models.Team
	err := q.QueryRow(ctx, query, teamID).Scan(
		&team.TeamID, &team.Name, &team.Abbreviation,
		&team.League, &team.Division, &team.CreatedAt,
	)

	if err == pgx.ErrNoRows {
		return nil, fmt.Errorf("team not found: team_id=%d", teamID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}

	return &team, nil
}

// List retrieves all teams
func (r *TeamRepository) List(ctx context.Context, q Querier) ([]*models.Team, error) {
	query := `
		SELECT team_id, team_name, abbreviation, league, division, created_at
		FROM teams
		ORDER BY team_name
	`

	rows, err := q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []*models.Team
	for rows.Next() {
		var team models.Team
		err := rows.Scan(
			&team.TeamID, &team.Name, &team.Abbreviation,
			&team.League, &team.Division, &team.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, &team)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teams: %w", err)
	}

	return teams, nil
}

// Count returns the total number of teams
func (r *TeamRepository) Count(ctx context.Context, q Querier) (int, error) {
	query := `SELECT COUNT(*) FROM teams`

	var count int
	err := q.QueryRow(ctx, query).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count teams: %w", err)
	}

	return count, nil
}
