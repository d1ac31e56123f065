package models

import (
	"database/sql"
	"time"
)

// Team represents an MLB team reference row.
// Teams are insert-if-absent: the first observation is authoritative and
// later payloads never modify an existing row.
type Team struct {
	TeamID       int            `db:"team_id"`
	Name         string         `db:"team_name"`
	Abbreviation sql.NullString `db:"abbreviation"`
	League       sql.NullString `db:"league"`
	Division     sql.NullString `db:"division"`
	CreatedAt    time.Time      `db:"created_at"`
}

// NamedRef is the {id, name} sub-object the Stats API uses for leagues,
// divisions and positions.
type NamedRef struct {
	ID   int    `json:"id,omitempty"`
	Name string `json:"name"`
}

// TeamDescriptor is the team sub-object embedded in boxscore, linescore and
// schedule payloads.
type TeamDescriptor struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Abbreviation string    `json:"abbreviation"`
	League       *NamedRef `json:"league,omitempty"`
	Division     *NamedRef `json:"division,omitempty"`
}

// ToTeam converts an API team descriptor to a Team model.
// Missing optional sub-fields are stored as NULL and never backfilled.
func (td *TeamDescriptor) ToTeam() *Team {
	team := &Team{
		TeamID: td.ID,
		Name:   td.Name,
	}

	if td.Abbreviation != "" {
		team.Abbreviation = sql.NullString{String: td.Abbreviation, Valid: true}
	}
	if td.League != nil && td.League.Name != "" {
		team.League = sql.NullString{String: td.League.Name, Valid: true}
	}
	if td.Division != nil && td.Division.Name != "" {
		team.Division = sql.NullString{String: td.Division.Name, Valid: true}
	}

	return team
}
