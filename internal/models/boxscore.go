package models

import (
	"database/sql"
	"time"
)

// BattingStats is the per-player batting block of a boxscore payload.
// External field names follow the Stats API; zero values stand in for fields
// the source omitted. The load contract treats an absent field as
// authoritatively zero.
type BattingStats struct {
	AtBats      int `json:"atBats"`
	Runs        int `json:"runs"`
	Hits        int `json:"hits"`
	Doubles     int `json:"doubles"`
	Triples     int `json:"triples"`
	HomeRuns    int `json:"homeRuns"`
	RBI         int `json:"rbi"`
	BaseOnBalls int `json:"baseOnBalls"`
	StrikeOuts  int `json:"strikeOuts"`
	HitByPitch  int `json:"hitByPitch"`
	SacFlies    int `json:"sacFlies"`
	SacBunts    int `json:"sacBunts"`
}

// IsEmpty reports whether the batting block carries no stats at all, which is
// what the API returns for players who did not bat.
func (b BattingStats) IsEmpty() bool {
	return b == BattingStats{}
}

// BoxscoreLine is one player's batting line for one game. The
// (game_id, player_id) pair is the natural key; the synthetic id exists only
// as a storage artifact.
type BoxscoreLine struct {
	ID             int          `db:"id"`
	GameID         int          `db:"game_id"`
	PlayerID       int          `db:"player_id"`
	TeamID         int          `db:"team_id"`
	AtBats         int          `db:"at_bats"`
	Runs           int          `db:"runs"`
	Hits           int          `db:"hits"`
	Doubles        int          `db:"doubles"`
	Triples        int          `db:"triples"`
	HomeRuns       int          `db:"home_runs"`
	RBI            int          `db:"rbi"`
	Walks          int          `db:"walks"`
	Strikeouts     int          `db:"strikeouts"`
	HitByPitch     int          `db:"hit_by_pitch"`
	SacrificeFlies int          `db:"sacrifice_flies"`
	SacrificeBunts int          `db:"sacrifice_bunts"`
	GameDate       sql.NullTime `db:"game_date"`
	CreatedAt      time.Time    `db:"created_at"`
}

// ToLine converts batting stats into a boxscore line, mapping the API field
// names onto column names (baseOnBalls becomes walks, sacFlies becomes
// sacrifice_flies, and so on).
func (b BattingStats) ToLine(gameID, playerID, teamID int, gameDate time.Time) *BoxscoreLine {
	line := &BoxscoreLine{
		GameID:         gameID,
		PlayerID:       playerID,
		TeamID:         teamID,
		AtBats:         b.AtBats,
		Runs:           b.Runs,
		Hits:           b.Hits,
		Doubles:        b.Doubles,
		Triples:        b.Triples,
		HomeRuns:       b.HomeRuns,
		RBI:            b.RBI,
		Walks:          b.BaseOnBalls,
		Strikeouts:     b.StrikeOuts,
		HitByPitch:     b.HitByPitch,
		SacrificeFlies: b.SacFlies,
		SacrificeBunts: b.SacBunts,
	}
	if !gameDate.IsZero() {
		line.GameDate = sql.NullTime{Time: gameDate, Valid: true}
	}
	return line
}
