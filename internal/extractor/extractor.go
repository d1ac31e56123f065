// Package extractor pulls game data from the MLB Stats API and writes
// combined payload files for the loader to pick up.
package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"mlbdata/pipeline/internal/jsonio"
	"mlbdata/pipeline/internal/metrics"
	"mlbdata/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// api is the slice of the Stats API client the extractor uses.
type api interface {
	FetchSchedule(ctx context.Context, startDate, endDate string) (*models.ScheduleResponse, error)
	FetchBoxscore(ctx context.Context, gamePk int) ([]byte, error)
	FetchLinescore(ctx context.Context, gamePk int) ([]byte, error)
}

// Extractor fetches per-game documents for a date range and writes one
// combined file per game.
type Extractor struct {
	client api
	outDir string
}

// New creates an extractor writing files under outDir
func New(client api, outDir string) *Extractor {
	return &Extractor{client: client, outDir: outDir}
}

// Result summarizes one extraction run.
type Result struct {
	GamesFound   int
	GamesWritten int
	GamesFailed  int
}

// ExtractRange extracts every game scheduled between startDate and endDate
// (inclusive, YYYY-MM-DD). Per-game failures are logged and counted; the run
// keeps going.
func (e *Extractor) ExtractRange(ctx context.Context, startDate, endDate string) (*Result, error) {
	schedule, err := e.client.FetchSchedule(ctx, startDate, endDate)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch schedule for %s..%s: %w", startDate, endDate, err)
	}

	res := &Result{}
	for _, day := range schedule.Dates {
		for i := range day.Games {
			entry := &day.Games[i]
			if entry.GamePk == 0 {
				continue
			}
			res.GamesFound++

			if err := e.extractGame(ctx, entry, day.Date); err != nil {
				log.Warn().Err(err).
					Int("game_id", entry.GamePk).
					Str("date", day.Date).
					Msg("Game extraction failed")
				metrics.GamesExtractedTotal.WithLabelValues("error").Inc()
				res.GamesFailed++
				continue
			}
			metrics.GamesExtractedTotal.WithLabelValues("success").Inc()
			res.GamesWritten++
		}
	}

	log.Info().
		Str("start", startDate).
		Str("end", endDate).
		Int("found", res.GamesFound).
		Int("written", res.GamesWritten).
		Int("failed", res.GamesFailed).
		Msg("Extraction run complete")
	return res, nil
}

// ExtractDate extracts a single day's slate
func (e *Extractor) ExtractDate(ctx context.Context, date string) (*Result, error) {
	return e.ExtractRange(ctx, date, date)
}

// extractGame fetches boxscore and linescore for one game and writes the
// combined payload file. Schedule metadata rides along so the loader does not
// need an enrichment lookup for extractor-produced files.
func (e *Extractor) extractGame(ctx context.Context, entry *models.ScheduleGame, date string) error {
	boxscore, err := e.client.FetchBoxscore(ctx, entry.GamePk)
	if err != nil {
		return err
	}
	linescore, err := e.client.FetchLinescore(ctx, entry.GamePk)
	if err != nil {
		return err
	}

	gameDate := entry.GameDate
	if gameDate == "" {
		gameDate = date
	}

	payload := models.CombinedPayload{
		GameID:            entry.GamePk,
		GameDate:          gameDate,
		GameType:          entry.GameType,
		OfficialDate:      entry.OfficialDate,
		SeriesDescription: entry.SeriesDescription,
		Boxscore:          json.RawMessage(boxscore),
		GameData:          json.RawMessage(linescore),
	}

	path := filepath.Join(e.outDir, fileName(entry.GamePk, date))
	if err := jsonio.WriteJSON(path, payload); err != nil {
		return err
	}

	log.Debug().
		Int("game_id", entry.GamePk).
		Str("file", path).
		Msg("Wrote combined payload")
	return nil
}

// fileName builds the combined payload filename. The date is normalized so
// filenames sort chronologically.
func fileName(gamePk int, date string) string {
	if d, err := models.ParseDate(date); err == nil {
		date = d.Format("2006-01-02")
	} else {
		date = time.Now().UTC().Format("2006-01-02")
	}
	return fmt.Sprintf("combined_data_%d_%s.json", gamePk, date)
}
