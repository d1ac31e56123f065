package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"mlbdata/pipeline/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore implements Store in memory with snapshot semantics: a failed unit
// of work leaves the state exactly as it was.
type fakeStore struct {
	rawPayloads []*models.RawPayload
	teams       map[int]*models.Team
	players     map[int]*models.Player
	games       map[int]*models.Game
	lines       map[string]*models.BoxscoreLine
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		teams:   make(map[int]*models.Team),
		players: make(map[int]*models.Player),
		games:   make(map[int]*models.Game),
		lines:   make(map[string]*models.BoxscoreLine),
	}
}

func lineKey(gameID, playerID int) string {
	return fmt.Sprintf("%d/%d", gameID, playerID)
}

func (f *fakeStore) InTx(ctx context.Context, fn func(s Session) error) error {
	staged := &fakeSession{
		rawPayloads: append([]*models.RawPayload(nil), f.rawPayloads...),
		teams:       copyMap(f.teams),
		players:     copyMap(f.players),
		games:       copyMap(f.games),
		lines:       copyMap(f.lines),
	}
	if err := fn(staged); err != nil {
		return err
	}
	f.rawPayloads = staged.rawPayloads
	f.teams = staged.teams
	f.players = staged.players
	f.games = staged.games
	f.lines = staged.lines
	return nil
}

func copyMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

type fakeSession struct {
	rawPayloads []*models.RawPayload
	teams       map[int]*models.Team
	players     map[int]*models.Player
	games       map[int]*models.Game
	lines       map[string]*models.BoxscoreLine
}

func (s *fakeSession) SaveRawPayload(_ context.Context, p *models.RawPayload) error {
	s.rawPayloads = append(s.rawPayloads, p)
	return nil
}

func (s *fakeSession) InsertTeamIfAbsent(_ context.Context, team *models.Team) error {
	if _, ok := s.teams[team.TeamID]; !ok {
		s.teams[team.TeamID] = team
	}
	return nil
}

func (s *fakeSession) InsertPlayerIfAbsent(_ context.Context, player *models.Player) error {
	if _, ok := s.players[player.PlayerID]; !ok {
		s.players[player.PlayerID] = player
	}
	return nil
}

func (s *fakeSession) UpsertGame(_ context.Context, game *models.Game) error {
	if prior, ok := s.games[game.GameID]; ok {
		// Metadata columns keep their prior value when the new row has none,
		// matching the COALESCE in the real upsert.
		if !game.GameType.Valid {
			game.GameType = prior.GameType
		}
		if !game.SeriesDescription.Valid {
			game.SeriesDescription = prior.SeriesDescription
		}
		if !game.OfficialDate.Valid {
			game.OfficialDate = prior.OfficialDate
		}
	}
	s.games[game.GameID] = game
	return nil
}

func (s *fakeSession) UpsertBoxscoreLine(_ context.Context, line *models.BoxscoreLine) error {
	s.lines[lineKey(line.GameID, line.PlayerID)] = line
	return nil
}

// fakeEnricher returns a fixed result or error.
type fakeEnricher struct {
	meta  *models.GameMetadata
	err   error
	calls int
}

func (f *fakeEnricher) GameMetadata(_ context.Context, _ int) (*models.GameMetadata, error) {
	f.calls++
	return f.meta, f.err
}

func newTestLoader(store Store, enricher Enricher) *Loader {
	l := New(store, enricher)
	l.now = func() time.Time {
		return time.Date(2024, 7, 15, 12, 0, 0, 0, time.UTC)
	}
	return l
}

const combinedFixture = `{
	"game_id": 700001,
	"game_date": "2024-06-01",
	"game_type": "R",
	"series_description": "Regular Season",
	"official_date": "2024-06-01",
	"game_data": {
		"teams": {
			"home": {"team": {"id": 119, "name": "Los Angeles Dodgers"}, "runs": 5},
			"away": {"team": {"id": 137, "name": "San Francisco Giants"}, "runs": 3}
		},
		"currentInning": null,
		"status": {"detailedState": "Final"}
	},
	"boxscore": {
		"teams": {
			"home": {
				"team": {"id": 119, "name": "Los Angeles Dodgers"},
				"players": {
					"ID660271": {
						"person": {"id": 660271, "fullName": "Shohei Ohtani"},
						"stats": {"batting": {"atBats": 4, "hits": 2, "homeRuns": 1, "rbi": 2, "baseOnBalls": 1}}
					},
					"ID605141": {
						"person": {"id": 605141, "fullName": "Mookie Betts"},
						"stats": {"batting": {}}
					}
				}
			},
			"away": {
				"team": {"id": 137, "name": "San Francisco Giants"},
				"players": {
					"ID592626": {
						"person": {"id": 592626, "fullName": "Matt Chapman"},
						"stats": {"batting": {"atBats": 3, "hits": 1, "strikeOuts": 2}}
					}
				}
			}
		}
	}
}`

func TestLoadCombined(t *testing.T) {
	store := newFakeStore()
	l := newTestLoader(store, nil)

	err := l.LoadCombined(context.Background(), []byte(combinedFixture))
	require.NoError(t, err)

	// Raw payload audit row
	require.Len(t, store.rawPayloads, 1)
	assert.Equal(t, 700001, store.rawPayloads[0].GameID)
	assert.Equal(t, models.KindCombined, store.rawPayloads[0].Kind)

	// Both teams exist
	assert.Len(t, store.teams, 2)
	assert.Equal(t, "Los Angeles Dodgers", store.teams[119].Name)

	// Game row with scores, status and metadata
	game := store.games[700001]
	require.NotNil(t, game)
	assert.Equal(t, 119, game.HomeTeamID)
	assert.Equal(t, 137, game.AwayTeamID)
	assert.Equal(t, 5, game.HomeScore)
	assert.Equal(t, 3, game.AwayScore)
	assert.Equal(t, models.StatusFinal, game.Status)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), game.GameDate)
	assert.Equal(t, "R", game.GameType.String)
	assert.Equal(t, "Regular Season", game.SeriesDescription.String)
	require.True(t, game.OfficialDate.Valid)

	// Players who batted get a line; the empty batting block does not
	assert.Len(t, store.players, 3)
	assert.Len(t, store.lines, 2)
	require.Nil(t, store.lines[lineKey(700001, 605141)])

	line := store.lines[lineKey(700001, 660271)]
	require.NotNil(t, line)
	assert.Equal(t, 4, line.AtBats)
	assert.Equal(t, 1, line.Walks)
	require.True(t, line.GameDate.Valid)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), line.GameDate.Time)
}

func TestLoadCombined_Idempotent(t *testing.T) {
	store := newFakeStore()
	l := newTestLoader(store, nil)

	require.NoError(t, l.LoadCombined(context.Background(), []byte(combinedFixture)))
	require.NoError(t, l.LoadCombined(context.Background(), []byte(combinedFixture)))

	// Entity counts are stable; only the audit log grows
	assert.Len(t, store.teams, 2)
	assert.Len(t, store.players, 3)
	assert.Len(t, store.games, 1)
	assert.Len(t, store.lines, 2)
	assert.Len(t, store.rawPayloads, 2)
}

func TestLoadCombined_TopLevelMetadataWins(t *testing.T) {
	raw := []byte(`{
		"game_id": 700001,
		"game_date": "2024-06-01",
		"game_type": "R",
		"game_data": {
			"teams": {
				"home": {"team": {"id": 119, "name": "Dodgers"}, "runs": 0},
				"away": {"team": {"id": 137, "name": "Giants"}, "runs": 0}
			},
			"gameType": "S",
			"status": {"detailedState": "Scheduled"}
		}
	}`)

	store := newFakeStore()
	l := newTestLoader(store, nil)

	require.NoError(t, l.LoadCombined(context.Background(), raw))
	assert.Equal(t, "R", store.games[700001].GameType.String,
		"top-level metadata overrides the embedded field")
}

func TestLoadCombined_Enrichment(t *testing.T) {
	raw := []byte(`{
		"game_id": 700001,
		"game_date": "2024-06-01",
		"game_data": {
			"teams": {
				"home": {"team": {"id": 119, "name": "Dodgers"}, "runs": 5},
				"away": {"team": {"id": 137, "name": "Giants"}, "runs": 3}
			},
			"status": {"detailedState": "Final"}
		}
	}`)

	t.Run("lookup fills metadata", func(t *testing.T) {
		store := newFakeStore()
		enricher := &fakeEnricher{meta: &models.GameMetadata{
			GameType:          "R",
			SeriesDescription: "Regular Season",
			OfficialDate:      "2024-06-01",
		}}
		l := newTestLoader(store, enricher)

		require.NoError(t, l.LoadCombined(context.Background(), raw))
		assert.Equal(t, 1, enricher.calls)

		game := store.games[700001]
		assert.Equal(t, "R", game.GameType.String)
		assert.Equal(t, "Regular Season", game.SeriesDescription.String)
		assert.True(t, game.OfficialDate.Valid)
	})

	t.Run("lookup failure leaves nulls", func(t *testing.T) {
		store := newFakeStore()
		enricher := &fakeEnricher{err: errors.New("api down")}
		l := newTestLoader(store, enricher)

		require.NoError(t, l.LoadCombined(context.Background(), raw),
			"enrichment failure must not fail the load")

		game := store.games[700001]
		require.NotNil(t, game)
		assert.False(t, game.GameType.Valid)
		assert.False(t, game.SeriesDescription.Valid)
	})

	t.Run("miss leaves nulls", func(t *testing.T) {
		store := newFakeStore()
		l := newTestLoader(store, &fakeEnricher{})

		require.NoError(t, l.LoadCombined(context.Background(), raw))
		assert.False(t, store.games[700001].GameType.Valid)
	})

	t.Run("complete metadata skips the lookup", func(t *testing.T) {
		store := newFakeStore()
		enricher := &fakeEnricher{}
		l := newTestLoader(store, enricher)

		require.NoError(t, l.LoadCombined(context.Background(), []byte(combinedFixture)))
		assert.Equal(t, 0, enricher.calls)
	})
}

func TestLoadCombined_MetadataSurvivesMetadataFreeReload(t *testing.T) {
	store := newFakeStore()
	l := newTestLoader(store, nil)
	require.NoError(t, l.LoadCombined(context.Background(), []byte(combinedFixture)))

	// A later game-only payload without metadata must not clobber it
	raw := []byte(`{
		"teams": {
			"home": {"team": {"id": 119, "name": "Dodgers"}, "runs": 5},
			"away": {"team": {"id": 137, "name": "Giants"}, "runs": 3}
		},
		"status": {"detailedState": "Final"},
		"gamePk": 700001
	}`)
	require.NoError(t, l.LoadGameData(context.Background(), "game_raw_700001.json", raw))

	game := store.games[700001]
	assert.Equal(t, "R", game.GameType.String)
	assert.Equal(t, "Regular Season", game.SeriesDescription.String)
}

func TestLoadBoxscore_OverwritesAllFields(t *testing.T) {
	store := newFakeStore()
	l := newTestLoader(store, nil)
	require.NoError(t, l.LoadCombined(context.Background(), []byte(combinedFixture)))

	// Corrected stat line omits homeRuns and rbi entirely: absent means zero.
	raw := []byte(`{
		"teams": {
			"home": {
				"team": {"id": 119, "name": "Los Angeles Dodgers"},
				"players": {
					"ID660271": {
						"person": {"id": 660271, "fullName": "Shohei Ohtani"},
						"stats": {"batting": {"atBats": 4, "hits": 1}}
					}
				}
			},
			"away": {"team": {"id": 137, "name": "San Francisco Giants"}, "players": {}}
		}
	}`)
	require.NoError(t, l.LoadBoxscore(context.Background(), "boxscore_raw_700001.json", raw))

	line := store.lines[lineKey(700001, 660271)]
	require.NotNil(t, line)
	assert.Equal(t, 1, line.Hits)
	assert.Equal(t, 0, line.HomeRuns, "absent field overwrites to zero")
	assert.Equal(t, 0, line.RBI)
	assert.Equal(t, 0, line.Walks)

	// Still exactly one line per (game, player)
	assert.Len(t, store.lines, 2)
}

func TestLoadBoxscore_GameIDFromFilename(t *testing.T) {
	raw := []byte(`{
		"teams": {
			"home": {
				"team": {"id": 119, "name": "Dodgers"},
				"players": {
					"ID660271": {
						"person": {"id": 660271, "fullName": "Shohei Ohtani"},
						"stats": {"batting": {"atBats": 4}}
					}
				}
			},
			"away": {"team": {"id": 137, "name": "Giants"}, "players": {}}
		}
	}`)

	store := newFakeStore()
	l := newTestLoader(store, nil)
	require.NoError(t, l.LoadBoxscore(context.Background(), "boxscore_raw_700009.json", raw))

	line := store.lines[lineKey(700009, 660271)]
	require.NotNil(t, line)
	assert.False(t, line.GameDate.Valid, "boxscore-only path has no date source")
}

func TestLoadCombined_Malformed(t *testing.T) {
	store := newFakeStore()
	l := newTestLoader(store, nil)
	ctx := context.Background()

	err := l.LoadCombined(ctx, []byte(`{"game_date": "2024-06-01"}`))
	require.ErrorIs(t, err, ErrMalformedPayload, "missing game_id is fatal for the file")

	err = l.LoadCombined(ctx, []byte(`{"game_id": 700001, "game_data": {"teams": {}}}`))
	require.ErrorIs(t, err, ErrMalformedPayload, "missing teams is fatal for the file")

	// Nothing committed for the failed files
	assert.Empty(t, store.rawPayloads)
	assert.Empty(t, store.games)
}

func TestLoad_DispatchesByClassification(t *testing.T) {
	store := newFakeStore()
	l := newTestLoader(store, nil)

	err := l.Load(context.Background(), "combined_data_700001_2024-06-01.json", []byte(combinedFixture))
	require.NoError(t, err)
	assert.Len(t, store.games, 1)

	var classErr *ClassificationError
	err = l.Load(context.Background(), "mystery.json", []byte(`{"foo": 1}`))
	require.ErrorAs(t, err, &classErr)
}

func TestLoadSchedule(t *testing.T) {
	schedule := &models.ScheduleResponse{
		TotalGames: 2,
		Dates: []models.ScheduleDate{
			{
				Date: "2024-06-01",
				Games: []models.ScheduleGame{
					{
						GamePk:            700001,
						GameDate:          "2024-06-01T23:05:00Z",
						OfficialDate:      "2024-06-01",
						GameType:          "R",
						SeriesDescription: "Regular Season",
						Status:            &models.GameState{DetailedState: "Final"},
						Teams: scheduleSides(
							models.TeamDescriptor{ID: 119, Name: "Dodgers"}, intPtr(5),
							models.TeamDescriptor{ID: 137, Name: "Giants"}, intPtr(3),
						),
					},
					{
						// No teams: skipped, the rest of the slate still loads
						GamePk: 700002,
						Status: &models.GameState{DetailedState: "Scheduled"},
					},
				},
			},
		},
	}

	store := newFakeStore()
	l := newTestLoader(store, nil)

	loaded, err := l.LoadSchedule(context.Background(), schedule)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded)

	game := store.games[700001]
	require.NotNil(t, game)
	assert.Equal(t, models.StatusFinal, game.Status)
	assert.Equal(t, 5, game.HomeScore)
	assert.Equal(t, 3, game.AwayScore)
	assert.Equal(t, "R", game.GameType.String)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), game.GameDate)
	assert.Nil(t, store.games[700002])
}

func scheduleSides(home models.TeamDescriptor, homeScore *int, away models.TeamDescriptor, awayScore *int) (sides struct {
	Home models.ScheduleTeamSide `json:"home"`
	Away models.ScheduleTeamSide `json:"away"`
}) {
	sides.Home = models.ScheduleTeamSide{Team: home, Score: homeScore}
	sides.Away = models.ScheduleTeamSide{Team: away, Score: awayScore}
	return sides
}

func intPtr(v int) *int { return &v }

func TestLoadGameData_LiveGame(t *testing.T) {
	raw := []byte(`{
		"gamePk": 700005,
		"teams": {
			"home": {"team": {"id": 119, "name": "Dodgers"}, "runs": 2},
			"away": {"team": {"id": 137, "name": "Giants"}, "runs": 2}
		},
		"currentInning": 7,
		"inningState": "Top"
	}`)

	store := newFakeStore()
	l := newTestLoader(store, nil)
	require.NoError(t, l.LoadGameData(context.Background(), "game_raw_700005.json", raw))

	game := store.games[700005]
	require.NotNil(t, game)
	assert.Equal(t, models.StatusLive, game.Status, "inning heuristic with no explicit status")
	require.True(t, game.Inning.Valid)
	assert.Equal(t, int32(7), game.Inning.Int32)
	assert.Equal(t, "Top", game.InningHalf.String)
	// No date anywhere in the payload: wall-clock fallback
	assert.Equal(t, time.Date(2024, 7, 15, 0, 0, 0, 0, time.UTC), game.GameDate)
}

func TestLoadCombined_RawPayloadPreserved(t *testing.T) {
	store := newFakeStore()
	l := newTestLoader(store, nil)

	require.NoError(t, l.LoadCombined(context.Background(), []byte(combinedFixture)))

	var roundtrip map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(store.rawPayloads[0].Data, &roundtrip))
	assert.Contains(t, roundtrip, "boxscore", "stored blob is the unmodified source")
}
