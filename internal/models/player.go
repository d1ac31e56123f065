package models

import (
	"database/sql"
	"time"
)

// Player represents an MLB player reference row.
// Like teams, players are insert-if-absent: the team association captured on
// first sight is retained even if the player later appears for another club.
type Player struct {
	PlayerID  int            `db:"player_id"`
	FullName  string         `db:"player_name"`
	TeamID    sql.NullInt32  `db:"team_id"`
	Position  sql.NullString `db:"position"`
	CreatedAt time.Time      `db:"created_at"`
}

// PersonDescriptor is the person sub-object inside boxscore player entries.
type PersonDescriptor struct {
	ID              int       `json:"id"`
	FullName        string    `json:"fullName"`
	PrimaryPosition *NamedRef `json:"primaryPosition,omitempty"`
}

// ToPlayer converts an API person descriptor to a Player model.
// teamID is the club the player appeared for in the source payload.
func (pd *PersonDescriptor) ToPlayer(teamID int) *Player {
	player := &Player{
		PlayerID: pd.ID,
		FullName: pd.FullName,
	}

	if teamID > 0 {
		player.TeamID = sql.NullInt32{Int32: int32(teamID), Valid: true}
	}
	if pd.PrimaryPosition != nil && pd.PrimaryPosition.Name != "" {
		player.Position = sql.NullString{String: pd.PrimaryPosition.Name, Valid: true}
	}

	return player
}
