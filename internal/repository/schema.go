package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
)

// schemaDDL creates the five pipeline tables. Statements are idempotent so
// the loader can run it on every start.
//
// The (game_id, player_id) pair on boxscore is the natural key but is
// enforced by the loader, not the schema; the index only keeps the
// update-by-key path fast. boxscore.game_id carries no foreign key: a
// boxscore-only payload can arrive before any game row exists for it.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS teams (
	team_id INTEGER PRIMARY KEY,
	team_name TEXT NOT NULL,
	abbreviation TEXT,
	league TEXT,
	division TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS games (
	game_id INTEGER PRIMARY KEY,
	game_date DATE NOT NULL,
	home_team_id INTEGER REFERENCES teams(team_id),
	away_team_id INTEGER REFERENCES teams(team_id),
	home_score INTEGER NOT NULL DEFAULT 0,
	away_score INTEGER NOT NULL DEFAULT 0,
	inning INTEGER,
	inning_state TEXT,
	game_status TEXT NOT NULL,
	game_type TEXT,
	series_description TEXT,
	official_date DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS players (
	player_id INTEGER PRIMARY KEY,
	player_name TEXT NOT NULL,
	team_id INTEGER REFERENCES teams(team_id),
	position TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS boxscore (
	id SERIAL PRIMARY KEY,
	game_id INTEGER NOT NULL,
	player_id INTEGER REFERENCES players(player_id),
	team_id INTEGER REFERENCES teams(team_id),
	at_bats INTEGER NOT NULL DEFAULT 0,
	runs INTEGER NOT NULL DEFAULT 0,
	hits INTEGER NOT NULL DEFAULT 0,
	doubles INTEGER NOT NULL DEFAULT 0,
	triples INTEGER NOT NULL DEFAULT 0,
	home_runs INTEGER NOT NULL DEFAULT 0,
	rbi INTEGER NOT NULL DEFAULT 0,
	walks INTEGER NOT NULL DEFAULT 0,
	strikeouts INTEGER NOT NULL DEFAULT 0,
	hit_by_pitch INTEGER NOT NULL DEFAULT 0,
	sacrifice_flies INTEGER NOT NULL DEFAULT 0,
	sacrifice_bunts INTEGER NOT NULL DEFAULT 0,
	game_date DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_boxscore_game_player ON boxscore (game_id, player_id);

CREATE TABLE IF NOT EXISTS raw_json_data (
	id SERIAL PRIMARY KEY,
	game_id INTEGER,
	data_type TEXT NOT NULL,
	json_data JSONB NOT NULL,
	extraction_timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS idx_raw_json_data_game ON raw_json_data (game_id);
`

// CreateSchema creates the pipeline tables if they do not exist
func (db *Database) CreateSchema(ctx context.Context) error {
	if _, err := db.Pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	log.Info().Msg("Database schema ensured")
	return nil
}
