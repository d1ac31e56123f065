package loader

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mlbdata/pipeline/internal/metrics"
	"mlbdata/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// ErrMalformedPayload marks a payload missing a required nested structure.
// Fatal for the file; the batch moves on to the next one.
var ErrMalformedPayload = errors.New("malformed payload")

// Session is the set of writes available inside one unit of work. All writes
// for one input file go through a single session and commit or roll back
// together.
type Session interface {
	SaveRawPayload(ctx context.Context, payload *models.RawPayload) error
	InsertTeamIfAbsent(ctx context.Context, team *models.Team) error
	InsertPlayerIfAbsent(ctx context.Context, player *models.Player) error
	UpsertGame(ctx context.Context, game *models.Game) error
	UpsertBoxscoreLine(ctx context.Context, line *models.BoxscoreLine) error
}

// Store opens unit-of-work sessions against the backing database.
type Store interface {
	InTx(ctx context.Context, fn func(s Session) error) error
}

// Enricher backfills game metadata from the schedule endpoint. A (nil, nil)
// return means "no match found"; the loader leaves the fields as they were.
type Enricher interface {
	GameMetadata(ctx context.Context, gameID int) (*models.GameMetadata, error)
}

// Loader merges heterogeneous game payloads into the normalized tables.
type Loader struct {
	store    Store
	enricher Enricher
	now      func() time.Time
}

// New creates a loader. enricher may be nil, in which case missing metadata
// stays null.
func New(store Store, enricher Enricher) *Loader {
	return &Loader{
		store:    store,
		enricher: enricher,
		now:      time.Now,
	}
}

// Load classifies a payload and runs the matching ingestion path. The
// filename is used both as classification hint and as game-id fallback.
func (l *Loader) Load(ctx context.Context, filename string, raw []byte) error {
	kind, err := Classify(filename, raw)
	if err != nil {
		metrics.RecordFileLoaded("unknown", "error", 0)
		return err
	}

	start := time.Now()
	switch kind {
	case models.KindCombined:
		err = l.LoadCombined(ctx, raw)
	case models.KindBoxscore:
		err = l.LoadBoxscore(ctx, filename, raw)
	case models.KindGameData:
		err = l.LoadGameData(ctx, filename, raw)
	default:
		err = &ClassificationError{Filename: filename, Reason: "unknown payload kind"}
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.RecordFileLoaded(string(kind), status, time.Since(start).Seconds())

	return err
}

// LoadCombined ingests a combined payload: pre-resolved game id and date,
// optional top-level metadata, embedded game summary and boxscore documents.
func (l *Loader) LoadCombined(ctx context.Context, raw []byte) error {
	var payload models.CombinedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if payload.GameID == 0 {
		return fmt.Errorf("%w: combined payload has no game_id", ErrMalformedPayload)
	}

	meta := &models.GameMetadata{
		GameType:          payload.GameType,
		SeriesDescription: payload.SeriesDescription,
		OfficialDate:      payload.OfficialDate,
	}

	// Enrichment happens before the unit of work opens: a slow or failed
	// lookup must not hold a transaction, and a miss is not an error.
	if meta.GameType == "" || meta.SeriesDescription == "" || meta.OfficialDate == "" {
		l.enrichMetadata(ctx, payload.GameID, meta)
	}

	gameDate := models.ResolveGameDate(payload.GameDate, "", l.now())

	err := l.store.InTx(ctx, func(s Session) error {
		if err := s.SaveRawPayload(ctx, &models.RawPayload{
			GameID: payload.GameID,
			Kind:   models.KindCombined,
			Data:   raw,
		}); err != nil {
			return err
		}

		if len(payload.GameData) > 0 {
			var doc models.GameDocument
			if err := json.Unmarshal(payload.GameData, &doc); err != nil {
				return fmt.Errorf("%w: bad game_data block: %v", ErrMalformedPayload, err)
			}
			if err := l.loadGameDocument(ctx, s, payload.GameID, &doc, payload.GameDate, meta); err != nil {
				return err
			}
		}

		if len(payload.Boxscore) > 0 {
			var doc models.BoxscoreDocument
			if err := json.Unmarshal(payload.Boxscore, &doc); err != nil {
				return fmt.Errorf("%w: bad boxscore block: %v", ErrMalformedPayload, err)
			}
			if err := l.loadBoxscoreDocument(ctx, s, payload.GameID, &doc, gameDate); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	log.Info().
		Int("game_id", payload.GameID).
		Str("game_date", payload.GameDate).
		Msg("Combined payload loaded")
	return nil
}

// LoadBoxscore ingests a raw boxscore-only document. The game id is
// recovered from the document body or, failing that, the filename.
func (l *Loader) LoadBoxscore(ctx context.Context, filename string, raw []byte) error {
	gameID, err := ResolveGameID(raw, filename)
	if err != nil {
		return err
	}

	var doc models.BoxscoreDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if doc.Teams.Home.Team.ID == 0 && doc.Teams.Away.Team.ID == 0 {
		return fmt.Errorf("%w: boxscore document has no teams", ErrMalformedPayload)
	}

	err = l.store.InTx(ctx, func(s Session) error {
		if err := s.SaveRawPayload(ctx, &models.RawPayload{
			GameID: gameID,
			Kind:   models.KindBoxscore,
			Data:   raw,
		}); err != nil {
			return err
		}
		// No date source on this path: lines keep a null game_date until a
		// combined payload for the game arrives.
		return l.loadBoxscoreDocument(ctx, s, gameID, &doc, time.Time{})
	})
	if err != nil {
		return err
	}

	log.Info().Int("game_id", gameID).Msg("Boxscore payload loaded")
	return nil
}

// LoadGameData ingests a raw game-summary document.
func (l *Loader) LoadGameData(ctx context.Context, filename string, raw []byte) error {
	gameID, err := ResolveGameID(raw, filename)
	if err != nil {
		return err
	}

	var doc models.GameDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	err = l.store.InTx(ctx, func(s Session) error {
		if err := s.SaveRawPayload(ctx, &models.RawPayload{
			GameID: gameID,
			Kind:   models.KindGameData,
			Data:   raw,
		}); err != nil {
			return err
		}
		return l.loadGameDocument(ctx, s, gameID, &doc, "", nil)
	})
	if err != nil {
		return err
	}

	log.Info().Int("game_id", gameID).Msg("Game payload loaded")
	return nil
}

// LoadSchedule ingests a parsed schedule response: one unit of work per game
// so a single bad entry does not poison the rest of the slate. Returns the
// number of games loaded.
func (l *Loader) LoadSchedule(ctx context.Context, schedule *models.ScheduleResponse) (int, error) {
	if schedule == nil {
		return 0, fmt.Errorf("%w: nil schedule", ErrMalformedPayload)
	}

	loaded := 0
	for _, day := range schedule.Dates {
		for i := range day.Games {
			entry := &day.Games[i]
			if entry.GamePk == 0 {
				continue
			}

			err := l.store.InTx(ctx, func(s Session) error {
				return l.loadScheduleGame(ctx, s, entry, day.Date)
			})
			if err != nil {
				log.Warn().Err(err).
					Int("game_id", entry.GamePk).
					Str("date", day.Date).
					Msg("Skipping schedule entry")
				metrics.RecordError("loader", "schedule_entry")
				continue
			}
			loaded++
			metrics.RecordRowUpserted("games")
		}
	}

	log.Info().Int("games", loaded).Msg("Schedule loaded")
	return loaded, nil
}

// loadScheduleGame writes teams and the game row for one schedule entry.
// dayDate is the date bucket the entry arrived under, used when the entry
// itself carries no timestamp.
func (l *Loader) loadScheduleGame(ctx context.Context, s Session, entry *models.ScheduleGame, dayDate string) error {
	home := entry.Teams.Home.Team
	away := entry.Teams.Away.Team
	if home.ID == 0 || away.ID == 0 {
		return fmt.Errorf("%w: schedule entry has no teams", ErrMalformedPayload)
	}

	if err := s.InsertTeamIfAbsent(ctx, home.ToTeam()); err != nil {
		return err
	}
	if err := s.InsertTeamIfAbsent(ctx, away.ToTeam()); err != nil {
		return err
	}

	detailed := ""
	if entry.Status != nil {
		detailed = entry.Status.DetailedState
		if detailed == "" {
			detailed = entry.Status.AbstractGameState
		}
	}

	var inning *int
	inningState := ""
	homeRuns, awayRuns := 0, 0
	if entry.Linescore != nil {
		inning = entry.Linescore.CurrentInning
		inningState = entry.Linescore.InningState
		homeRuns = entry.Linescore.Teams.Home.Runs
		awayRuns = entry.Linescore.Teams.Away.Runs
	} else {
		if entry.Teams.Home.Score != nil {
			homeRuns = *entry.Teams.Home.Score
		}
		if entry.Teams.Away.Score != nil {
			awayRuns = *entry.Teams.Away.Score
		}
	}

	explicitDate := entry.GameDate
	if explicitDate == "" {
		explicitDate = dayDate
	}

	game := &models.Game{
		GameID:     entry.GamePk,
		GameDate:   models.ResolveGameDate(explicitDate, "", l.now()),
		HomeTeamID: home.ID,
		AwayTeamID: away.ID,
		HomeScore:  homeRuns,
		AwayScore:  awayRuns,
		Status:     models.DeriveStatus(detailed, inning),
	}
	if inning != nil {
		game.Inning = sql.NullInt32{Int32: int32(*inning), Valid: true}
	}
	if inningState != "" {
		game.InningHalf = sql.NullString{String: inningState, Valid: true}
	}
	if entry.GameType != "" {
		game.GameType = sql.NullString{String: entry.GameType, Valid: true}
	}
	if entry.SeriesDescription != "" {
		game.SeriesDescription = sql.NullString{String: entry.SeriesDescription, Valid: true}
	}
	if entry.OfficialDate != "" {
		if d, err := models.ParseDate(entry.OfficialDate); err == nil {
			game.OfficialDate = sql.NullTime{Time: d, Valid: true}
		}
	}

	return s.UpsertGame(ctx, game)
}

// loadGameDocument writes the teams referenced by a game summary, then the
// game row itself. Caller-supplied metadata overrides same-named fields
// embedded in the document body.
func (l *Loader) loadGameDocument(ctx context.Context, s Session, gameID int, doc *models.GameDocument, explicitDate string, meta *models.GameMetadata) error {
	home := doc.Teams.Home.Team
	away := doc.Teams.Away.Team
	if home.ID == 0 || away.ID == 0 {
		return fmt.Errorf("%w: game document has no teams", ErrMalformedPayload)
	}

	// Teams first: the game row references them.
	if err := s.InsertTeamIfAbsent(ctx, home.ToTeam()); err != nil {
		return err
	}
	if err := s.InsertTeamIfAbsent(ctx, away.ToTeam()); err != nil {
		return err
	}
	metrics.RecordRowUpserted("teams")
	metrics.RecordRowUpserted("teams")

	detailed := ""
	if doc.Status != nil {
		detailed = doc.Status.DetailedState
		if detailed == "" {
			detailed = doc.Status.AbstractGameState
		}
	}

	game := &models.Game{
		GameID:     gameID,
		GameDate:   models.ResolveGameDate(explicitDate, doc.GameDate, l.now()),
		HomeTeamID: home.ID,
		AwayTeamID: away.ID,
		HomeScore:  doc.Teams.Home.Runs,
		AwayScore:  doc.Teams.Away.Runs,
		Status:     models.DeriveStatus(detailed, doc.CurrentInning),
	}
	if doc.CurrentInning != nil {
		game.Inning = sql.NullInt32{Int32: int32(*doc.CurrentInning), Valid: true}
	}
	if doc.InningState != "" {
		game.InningHalf = sql.NullString{String: doc.InningState, Valid: true}
	}

	// Metadata precedence: caller-supplied values win over fields embedded
	// deeper in the payload body; both absent leaves null.
	gameType := doc.GameType
	seriesDesc := doc.SeriesDescription
	officialDate := doc.OfficialDate
	if meta != nil {
		if meta.GameType != "" {
			gameType = meta.GameType
		}
		if meta.SeriesDescription != "" {
			seriesDesc = meta.SeriesDescription
		}
		if meta.OfficialDate != "" {
			officialDate = meta.OfficialDate
		}
	}
	if gameType != "" {
		game.GameType = sql.NullString{String: gameType, Valid: true}
	}
	if seriesDesc != "" {
		game.SeriesDescription = sql.NullString{String: seriesDesc, Valid: true}
	}
	if officialDate != "" {
		if d, err := models.ParseDate(officialDate); err == nil {
			game.OfficialDate = sql.NullTime{Time: d, Valid: true}
		}
	}

	if err := s.UpsertGame(ctx, game); err != nil {
		return err
	}
	metrics.RecordRowUpserted("games")

	return nil
}

// loadBoxscoreDocument writes teams, players and batting lines for both
// sides of a boxscore.
func (l *Loader) loadBoxscoreDocument(ctx context.Context, s Session, gameID int, doc *models.BoxscoreDocument, gameDate time.Time) error {
	for _, side := range []models.BoxscoreTeam{doc.Teams.Home, doc.Teams.Away} {
		if side.Team.ID == 0 {
			continue
		}

		if err := s.InsertTeamIfAbsent(ctx, side.Team.ToTeam()); err != nil {
			return err
		}
		metrics.RecordRowUpserted("teams")

		for key, entry := range side.Players {
			if !strings.HasPrefix(key, "ID") || entry.Person.ID == 0 {
				continue
			}

			if err := s.InsertPlayerIfAbsent(ctx, entry.Person.ToPlayer(side.Team.ID)); err != nil {
				return err
			}
			metrics.RecordRowUpserted("players")

			batting := entry.Stats.Batting
			if batting.IsEmpty() {
				continue
			}
			line := batting.ToLine(gameID, entry.Person.ID, side.Team.ID, gameDate)
			if err := s.UpsertBoxscoreLine(ctx, line); err != nil {
				return err
			}
			metrics.RecordRowUpserted("boxscore")
		}
	}

	return nil
}

// enrichMetadata fills the blanks in meta from the schedule endpoint.
// Lookup failures and misses leave meta untouched.
func (l *Loader) enrichMetadata(ctx context.Context, gameID int, meta *models.GameMetadata) {
	if l.enricher == nil {
		return
	}

	found, err := l.enricher.GameMetadata(ctx, gameID)
	if err != nil {
		log.Warn().Err(err).Int("game_id", gameID).Msg("Metadata enrichment failed")
		metrics.RecordError("loader", "enrichment")
		return
	}
	if found == nil {
		log.Debug().Int("game_id", gameID).Msg("No schedule metadata for game")
		return
	}

	if meta.GameType == "" {
		meta.GameType = found.GameType
	}
	if meta.SeriesDescription == "" {
		meta.SeriesDescription = found.SeriesDescription
	}
	if meta.OfficialDate == "" {
		meta.OfficialDate = found.OfficialDate
	}
}
