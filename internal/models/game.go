package models

import (
	"database/sql"
	"strings"
	"time"
)

// GameStatus is the normalized game state stored in the games table.
type GameStatus string

const (
	StatusScheduled GameStatus = "Scheduled"
	StatusLive      GameStatus = "Live"
	StatusFinal     GameStatus = "Final"
	StatusPostponed GameStatus = "Postponed"
	StatusSuspended GameStatus = "Suspended"
)

// MLB Stats API gameType codes.
const (
	GameTypeSpring         = "S"
	GameTypeRegular        = "R"
	GameTypeWildCard       = "F"
	GameTypeDivisionSeries = "D"
	GameTypeChampionship   = "L"
	GameTypeWorldSeries    = "W"
	GameTypeAllStar        = "A"
)

// Game represents a single MLB game. Rows are mutable: every reload of the
// same game_id overwrites score, status and metadata fields with the latest
// known values.
type Game struct {
	GameID            int            `db:"game_id"`
	GameDate          time.Time      `db:"game_date"`
	HomeTeamID        int            `db:"home_team_id"`
	AwayTeamID        int            `db:"away_team_id"`
	HomeScore         int            `db:"home_score"`
	AwayScore         int            `db:"away_score"`
	Inning            sql.NullInt32  `db:"inning"`
	InningHalf        sql.NullString `db:"inning_state"`
	Status            GameStatus     `db:"game_status"`
	GameType          sql.NullString `db:"game_type"`
	SeriesDescription sql.NullString `db:"series_description"`
	OfficialDate      sql.NullTime   `db:"official_date"`
	CreatedAt         time.Time      `db:"created_at"`
}

// IsLive returns true if the game is currently in progress.
func (g *Game) IsLive() bool {
	return g.Status == StatusLive
}

// IsFinal returns true if the game is completed.
func (g *Game) IsFinal() bool {
	return g.Status == StatusFinal
}

// DeriveStatus maps a source status string to the normalized enumeration.
// When the source provides no explicit status, a non-nil current inning means
// the game is live; anything else is treated as final. The heuristic cannot
// tell a postponed or suspended game from a final one, which is why the
// explicit field wins whenever present.
func DeriveStatus(detailedState string, currentInning *int) GameStatus {
	if s := statusFromDetailedState(detailedState); s != "" {
		return s
	}
	if currentInning != nil {
		return StatusLive
	}
	return StatusFinal
}

func statusFromDetailedState(state string) GameStatus {
	switch {
	case state == "":
		return ""
	case strings.HasPrefix(state, "Postponed"):
		return StatusPostponed
	case strings.HasPrefix(state, "Suspended"):
		return StatusSuspended
	case strings.HasPrefix(state, "In Progress"), state == "Live", state == "Manager challenge":
		return StatusLive
	case strings.HasPrefix(state, "Final"), state == "Game Over", strings.HasPrefix(state, "Completed"):
		return StatusFinal
	case state == "Scheduled", state == "Pre-Game", state == "Warmup", state == "Preview", state == "Delayed Start":
		return StatusScheduled
	default:
		return ""
	}
}

// ParseDate parses a plain YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}

// ResolveGameDate picks the game date with the documented precedence:
// explicit caller-supplied date, then a date embedded in the payload body,
// then the current wall-clock date as a last resort. Both sources accept a
// plain date or a full ISO-8601 timestamp.
func ResolveGameDate(explicit, embedded string, now time.Time) time.Time {
	if d, ok := parseAnyDate(explicit); ok {
		return d
	}
	if d, ok := parseAnyDate(embedded); ok {
		return d
	}
	return now.UTC().Truncate(24 * time.Hour)
}

func parseAnyDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if d, err := ParseDate(s); err == nil {
		return d, true
	}
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts.UTC().Truncate(24 * time.Hour), true
	}
	return time.Time{}, false
}
