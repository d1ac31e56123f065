package repository

import (
	"context"

	"mlbdata/pipeline/internal/models"
)

// Write operations bound to the session's transaction. These mirror the
// repository methods; the loader only ever writes through a session.

// SaveRawPayload appends one audit row for the source blob.
func (s *Session) SaveRawPayload(ctx context.Context, payload *models.RawPayload) error {
	return s.db.RawPayloads.Append(ctx, s.tx, payload)
}

// InsertTeamIfAbsent inserts a team unless a row for its id already exists.
func (s *Session) InsertTeamIfAbsent(ctx context.Context, team *models.Team) error {
	return s.db.Teams.InsertIfAbsent(ctx, s.tx, team)
}

// InsertPlayerIfAbsent inserts a player unless a row for its id already exists.
func (s *Session) InsertPlayerIfAbsent(ctx context.Context, player *models.Player) error {
	return s.db.Players.InsertIfAbsent(ctx, s.tx, player)
}

// UpsertGame inserts or updates the single current row for a game id.
func (s *Session) UpsertGame(ctx context.Context, game *models.Game) error {
	return s.db.Games.Upsert(ctx, s.tx, game)
}

// UpsertBoxscoreLine inserts or updates one (game, player) batting line.
func (s *Session) UpsertBoxscoreLine(ctx context.Context, line *models.BoxscoreLine) error {
	return s.db.Boxscore.Upsert(ctx, s.tx, line)
}
