package repository

import (
	"context"
	"fmt"

	"mlbdata/pipeline/internal/models"
)

// RawPayloadRepository handles the append-only audit log of source blobs
type RawPayloadRepository struct {
	db *Database
}

// Append inserts one audit row. Prior rows for the same game and kind are
// never checked or removed; reprocessing a file adds a new row each time.
func (r *RawPayloadRepository) Append(ctx context.Context, q Querier, payload *models.RawPayload) error {
	query := `
		INSERT INTO raw_json_data (game_id, data_type, json_data)
		VALUES ($1, $2, $3)
		RETURNING id, extraction_timestamp
	`

	err := q.QueryRow(
		ctx, query,
		payload.GameID, string(payload.Kind), payload.Data,
	).Scan(&payload.ID, &payload.CapturedAt)
	if err != nil {
		return fmt.Errorf("failed to append raw payload: %w", err)
	}

	return nil
}

// CountByGame returns the number of audit rows captured for a game
func (r *RawPayloadRepository) CountByGame(ctx context.Context, q Querier, gameID int) (int, error) {
	query := `SELECT COUNT(*) FROM raw_json_data WHERE game_id = $1`

	var count int
	err := q.QueryRow(ctx, query, gameID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count raw payloads: %w", err)
	}

	return count, nil
}
