package db

import (
	"context"
	"fmt"

	"github.com/jonathan/interview-kit/internal/apperrors"
	"github.com/jonathan/interview-kit/internal/types"
)

const recordColumns = `id, external_request_id, external_user_id, round_id, title, created_at, updated_at`

// CreateRecord inserts a record, or returns the existing one for the same external ids.
func (db *DB) CreateRecord(ctx context.Context, externalRequestID, externalUserID, title string) (*types.Record, error) {
	var r types.Record
	err := db.pool.QueryRow(ctx,
		`INSERT INTO records (external_request_id, external_user_id, title)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (external_request_id, external_user_id) DO UPDATE SET updated_at = NOW()
		 RETURNING `+recordColumns,
		externalRequestID, externalUserID, title,
	).Scan(&r.ID, &r.ExternalRequestID, &r.ExternalUserID, &r.RoundID, &r.Title, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create record: %w", err)
	}
	return &r, nil
}

// GetRecord retrieves a record by id
func (db *DB) GetRecord(ctx context.Context, id int64) (*types.Record, error) {
	return getRecord(ctx, db.pool, `SELECT `+recordColumns+` FROM records WHERE id = $1`, id)
}

// GetRecordByExternal retrieves the record correlated with a platform requisition and user
func (db *DB) GetRecordByExternal(ctx context.Context, externalRequestID, externalUserID string) (*types.Record, error) {
	return getRecord(ctx, db.pool,
		`SELECT `+recordColumns+` FROM records WHERE external_request_id = $1 AND external_user_id = $2`,
		externalRequestID, externalUserID)
}

func getRecord(ctx context.Context, q querier, query string, args ...any) (*types.Record, error) {
	var r types.Record
	err := q.QueryRow(ctx, query, args...).
		Scan(&r.ID, &r.ExternalRequestID, &r.ExternalUserID, &r.RoundID, &r.Title, &r.CreatedAt, &r.UpdatedAt)
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return &r, nil
}

func (w *writer) SetRecordRound(ctx context.Context, recordID, roundID int64) error {
	tag, err := w.q.Exec(ctx,
		`UPDATE records SET round_id = $2, updated_at = NOW() WHERE id = $1`,
		recordID, roundID)
	if err != nil {
		return fmt.Errorf("failed to set record round: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("record %d: %w", recordID, apperrors.ErrNotFound)
	}
	return nil
}
