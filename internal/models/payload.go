package models

import (
	"encoding/json"
	"time"
)

// PayloadKind identifies which of the three ingestion paths a payload
// belongs to.
type PayloadKind string

const (
	KindCombined PayloadKind = "combined"
	KindBoxscore PayloadKind = "boxscore"
	KindGameData PayloadKind = "game_data"
)

// RawPayload is one append-only audit row holding an unmodified source blob.
// Reprocessing the same file creates a new row each time.
type RawPayload struct {
	ID         int         `db:"id"`
	GameID     int         `db:"game_id"`
	Kind       PayloadKind `db:"data_type"`
	Data       []byte      `db:"json_data"`
	CapturedAt time.Time   `db:"extraction_timestamp"`
}

// CombinedPayload is a single document embedding both game-summary and
// boxscore data plus pre-resolved metadata, as written by the extractor.
type CombinedPayload struct {
	GameID            int             `json:"game_id"`
	GameDate          string          `json:"game_date"`
	GameType          string          `json:"game_type,omitempty"`
	OfficialDate      string          `json:"official_date,omitempty"`
	SeriesDescription string          `json:"series_description,omitempty"`
	Boxscore          json.RawMessage `json:"boxscore,omitempty"`
	GameData          json.RawMessage `json:"game_data,omitempty"`
}

// BoxscoreDocument is the raw per-game boxscore endpoint response.
type BoxscoreDocument struct {
	Teams struct {
		Home BoxscoreTeam `json:"home"`
		Away BoxscoreTeam `json:"away"`
	} `json:"teams"`
}

// BoxscoreTeam holds one side's team descriptor and player map. Player map
// keys follow the API convention "ID<personId>".
type BoxscoreTeam struct {
	Team    TeamDescriptor            `json:"team"`
	Players map[string]BoxscorePlayer `json:"players"`
}

// BoxscorePlayer is one entry of a boxscore team's player map.
type BoxscorePlayer struct {
	Person PersonDescriptor `json:"person"`
	Stats  struct {
		Batting BattingStats `json:"batting"`
	} `json:"stats"`
}

// GameDocument is the raw per-game summary (linescore) endpoint response.
type GameDocument struct {
	Teams struct {
		Home GameTeamSide `json:"home"`
		Away GameTeamSide `json:"away"`
	} `json:"teams"`
	CurrentInning     *int       `json:"currentInning"`
	InningState       string     `json:"inningState,omitempty"`
	GameDate          string     `json:"gameDate,omitempty"`
	GameType          string     `json:"gameType,omitempty"`
	SeriesDescription string     `json:"seriesDescription,omitempty"`
	OfficialDate      string     `json:"officialDate,omitempty"`
	Status            *GameState `json:"status,omitempty"`
}

// GameTeamSide is one side of a game summary document.
type GameTeamSide struct {
	Team TeamDescriptor `json:"team"`
	Runs int            `json:"runs"`
}

// GameState is the explicit status block some endpoint variants carry.
type GameState struct {
	AbstractGameState string `json:"abstractGameState,omitempty"`
	DetailedState     string `json:"detailedState,omitempty"`
}

// ScheduleResponse is the date-grouped schedule endpoint response.
type ScheduleResponse struct {
	TotalGames int            `json:"totalGames"`
	Dates      []ScheduleDate `json:"dates"`
}

// ScheduleDate is one day's worth of scheduled games.
type ScheduleDate struct {
	Date  string         `json:"date"`
	Games []ScheduleGame `json:"games"`
}

// ScheduleGame is one game descriptor from the schedule endpoint.
type ScheduleGame struct {
	GamePk            int        `json:"gamePk"`
	GameDate          string     `json:"gameDate,omitempty"`
	OfficialDate      string     `json:"officialDate,omitempty"`
	GameType          string     `json:"gameType,omitempty"`
	SeriesDescription string     `json:"seriesDescription,omitempty"`
	Season            string     `json:"season,omitempty"`
	GameNumber        int        `json:"gameNumber,omitempty"`
	DoubleHeader      string     `json:"doubleHeader,omitempty"`
	SeriesGameNumber  int        `json:"seriesGameNumber,omitempty"`
	GamesInSeries     int        `json:"gamesInSeries,omitempty"`
	DayNight          string     `json:"dayNight,omitempty"`
	ScheduledInnings  int        `json:"scheduledInnings,omitempty"`
	Status            *GameState `json:"status,omitempty"`
	Teams             struct {
		Home ScheduleTeamSide `json:"home"`
		Away ScheduleTeamSide `json:"away"`
	} `json:"teams"`
	Linescore *ScheduleLinescore `json:"linescore,omitempty"`
}

// ScheduleTeamSide is one side of a schedule game descriptor.
type ScheduleTeamSide struct {
	Team  TeamDescriptor `json:"team"`
	Score *int           `json:"score,omitempty"`
}

// ScheduleLinescore is the hydrated linescore block of a schedule entry.
type ScheduleLinescore struct {
	CurrentInning *int   `json:"currentInning"`
	InningState   string `json:"inningState,omitempty"`
	Teams         struct {
		Home struct {
			Runs int `json:"runs"`
		} `json:"home"`
		Away struct {
			Runs int `json:"runs"`
		} `json:"away"`
	} `json:"teams"`
}

// GameMetadata is the enrichment result backfilled from the schedule
// endpoint when the primary payload lacks these fields.
type GameMetadata struct {
	GameType          string `json:"game_type,omitempty"`
	SeriesDescription string `json:"series_description,omitempty"`
	OfficialDate      string `json:"official_date,omitempty"`
	Season            string `json:"season,omitempty"`
	GameNumber        int    `json:"game_number,omitempty"`
	DoubleHeader      string `json:"double_header,omitempty"`
	SeriesGameNumber  int    `json:"series_game_number,omitempty"`
	GamesInSeries     int    `json:"games_in_series,omitempty"`
	DayNight          string `json:"day_night,omitempty"`
	ScheduledInnings  int    `json:"scheduled_innings,omitempty"`
}
