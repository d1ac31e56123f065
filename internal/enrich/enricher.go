package enrich

import (
	"context"

	"mlbdata/pipeline/internal/metrics"
	"mlbdata/pipeline/internal/models"

	"github.com/rs/zerolog/log"
)

// ScheduleFetcher is the slice of the Stats API client the enricher needs.
type ScheduleFetcher interface {
	FetchGameSchedule(ctx context.Context, gamePk int) (*models.ScheduleResponse, error)
}

// MetadataCache is an optional read-through cache in front of the schedule
// endpoint. Both methods tolerate being called concurrently.
type MetadataCache interface {
	GetGameMetadata(ctx context.Context, gameID int) (*models.GameMetadata, error)
	SetGameMetadata(ctx context.Context, gameID int, meta *models.GameMetadata) error
}

// Enricher backfills game metadata from the schedule endpoint.
type Enricher struct {
	fetcher ScheduleFetcher
	cache   MetadataCache
}

// New creates an enricher. cache may be nil.
func New(fetcher ScheduleFetcher, cache MetadataCache) *Enricher {
	return &Enricher{fetcher: fetcher, cache: cache}
}

// GameMetadata looks up schedule metadata for a game. A lookup that finds no
// matching schedule entry returns (nil, nil): enrichment is best-effort and a
// miss is not an error.
func (e *Enricher) GameMetadata(ctx context.Context, gameID int) (*models.GameMetadata, error) {
	if e.cache != nil {
		if meta, err := e.cache.GetGameMetadata(ctx, gameID); err != nil {
			log.Warn().Err(err).Int("game_id", gameID).Msg("Metadata cache read failed")
		} else if meta != nil {
			metrics.RecordEnrichment("cache_hit")
			return meta, nil
		}
	}

	schedule, err := e.fetcher.FetchGameSchedule(ctx, gameID)
	if err != nil {
		metrics.RecordEnrichment("error")
		return nil, err
	}

	entry := findGame(schedule, gameID)
	if entry == nil {
		metrics.RecordEnrichment("miss")
		return nil, nil
	}

	meta := &models.GameMetadata{
		GameType:          entry.GameType,
		SeriesDescription: entry.SeriesDescription,
		OfficialDate:      entry.OfficialDate,
		Season:            entry.Season,
		GameNumber:        entry.GameNumber,
		DoubleHeader:      entry.DoubleHeader,
		SeriesGameNumber:  entry.SeriesGameNumber,
		GamesInSeries:     entry.GamesInSeries,
		DayNight:          entry.DayNight,
		ScheduledInnings:  entry.ScheduledInnings,
	}
	metrics.RecordEnrichment("hit")

	if e.cache != nil {
		if err := e.cache.SetGameMetadata(ctx, gameID, meta); err != nil {
			log.Warn().Err(err).Int("game_id", gameID).Msg("Metadata cache write failed")
		}
	}

	return meta, nil
}

// findGame scans a schedule response for the exact gamePk. The endpoint can
// return neighbouring games even when queried by gamePk, so the match must be
// explicit.
func findGame(schedule *models.ScheduleResponse, gamePk int) *models.ScheduleGame {
	if schedule == nil {
		return nil
	}
	for _, day := range schedule.Dates {
		for i := range day.Games {
			if day.Games[i].GamePk == gamePk {
				return &day.Games[i]
			}
		}
	}
	return nil
}
