package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/interview-kit/internal/apperrors"
	"github.com/jonathan/interview-kit/internal/types"
)

const questionColumns = `id, record_id, skill_id, content, external_id, external_pool_id, deleted, deletion_reason, feedback, like_state`

func scanQuestion(row scanner) (*types.Question, error) {
	var (
		q       types.Question
		content []byte
		deleted bool
		reason  *string
		like    string
	)
	if err := row.Scan(&q.ID, &q.RecordID, &q.SkillID, &content, &q.ExternalID, &q.ExternalPoolID,
		&deleted, &reason, &q.Feedback, &like); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(content, &q.Content); err != nil {
		return nil, fmt.Errorf("failed to unmarshal content of question %d: %w", q.ID, err)
	}
	q.State = types.StateFromColumns(deleted, reason)
	q.Like = types.LikeState(like)
	return &q, nil
}

// GetQuestion retrieves a question by id, including soft-deleted ones
func (db *DB) GetQuestion(ctx context.Context, id int64) (*types.Question, error) {
	q, err := scanQuestion(db.pool.QueryRow(ctx, `SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get question: %w", err)
	}
	return q, nil
}

// ListQuestions returns every question of a record ordered by id, including soft-deleted ones
func (db *DB) ListQuestions(ctx context.Context, recordID int64) ([]types.Question, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE record_id = $1 ORDER BY id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}
	defer rows.Close()

	var questions []types.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan question: %w", err)
		}
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating questions: %w", err)
	}
	return questions, nil
}

// CreateQuestion inserts a question and returns it with its generated id.
func (w *writer) CreateQuestion(ctx context.Context, q types.Question) (*types.Question, error) {
	return createQuestion(ctx, w.q, q)
}

// CreateQuestion inserts a question outside of any caller transaction.
func (db *DB) CreateQuestion(ctx context.Context, q types.Question) (*types.Question, error) {
	return createQuestion(ctx, db.pool, q)
}

func createQuestion(ctx context.Context, qr querier, q types.Question) (*types.Question, error) {
	content, err := json.Marshal(q.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal question content: %w", err)
	}
	like := q.Like
	if like == "" {
		like = types.LikeNone
	}

	created, err := scanQuestion(qr.QueryRow(ctx,
		`INSERT INTO questions (record_id, skill_id, content, external_id, external_pool_id, deleted, deletion_reason, feedback, like_state)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+questionColumns,
		q.RecordID, q.SkillID, content, q.ExternalID, q.ExternalPoolID,
		q.State.IsDeleted(), q.State.ReasonColumn(), q.Feedback, string(like),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create question: %w", err)
	}
	return created, nil
}

func (w *writer) PatchQuestion(ctx context.Context, p types.QuestionPatch) error {
	deleted, reason := stateArgs(p.State)
	tag, err := w.q.Exec(ctx,
		`UPDATE questions SET
			deleted = COALESCE($2, deleted),
			deletion_reason = CASE WHEN $2::boolean IS NULL THEN deletion_reason ELSE $3 END,
			external_pool_id = COALESCE($4, external_pool_id),
			updated_at = NOW()
		 WHERE id = $1`,
		p.QuestionID, deleted, reason, p.ExternalPoolID,
	)
	if err != nil {
		return fmt.Errorf("failed to patch question %d: %w", p.QuestionID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("question %d: %w", p.QuestionID, apperrors.ErrNotFound)
	}
	return nil
}

// ReplaceQuestionContent overwrites the content and resets the like state and stored feedback.
func (w *writer) ReplaceQuestionContent(ctx context.Context, questionID int64, content types.QuestionContent) (*types.Question, error) {
	blob, err := json.Marshal(content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal question content: %w", err)
	}
	q, err := scanQuestion(w.q.QueryRow(ctx,
		`UPDATE questions SET content = $2, like_state = 'NONE', feedback = NULL, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+questionColumns,
		questionID, blob,
	))
	if isNoRows(err) {
		return nil, fmt.Errorf("question %d: %w", questionID, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to replace question content: %w", err)
	}
	return q, nil
}
