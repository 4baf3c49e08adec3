package db

import (
	"context"
	"fmt"

	"github.com/jonathan/interview-kit/internal/types"
)

const regenerationColumns = `id, origin_question_id, result_question_id, reason, feedback, skill_id, record_id, created_at`

func scanRegeneration(row scanner) (*types.Regeneration, error) {
	var r types.Regeneration
	if err := row.Scan(&r.ID, &r.OriginQuestionID, &r.ResultQuestionID, &r.Reason, &r.Feedback,
		&r.SkillID, &r.RecordID, &r.CreatedAt); err != nil {
		return nil, err
	}
	return &r, nil
}

func (w *writer) InsertRegeneration(ctx context.Context, r types.Regeneration) (*types.Regeneration, error) {
	created, err := scanRegeneration(w.q.QueryRow(ctx,
		`INSERT INTO regenerations (origin_question_id, result_question_id, reason, feedback, skill_id, record_id)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+regenerationColumns,
		r.OriginQuestionID, r.ResultQuestionID, r.Reason, r.Feedback, r.SkillID, r.RecordID,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to insert regeneration: %w", err)
	}
	return created, nil
}

// ListRegenerations returns the regenerations a question took part in, as origin or result, oldest first
func (db *DB) ListRegenerations(ctx context.Context, questionID int64) ([]types.Regeneration, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+regenerationColumns+` FROM regenerations
		 WHERE origin_question_id = $1 OR result_question_id = $1
		 ORDER BY id`, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list regenerations: %w", err)
	}
	defer rows.Close()

	var out []types.Regeneration
	for rows.Next() {
		r, err := scanRegeneration(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan regeneration: %w", err)
		}
		out = append(out, *r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating regenerations: %w", err)
	}
	return out, nil
}
