package db

import (
	"context"
	"fmt"

	"github.com/jonathan/interview-kit/internal/apperrors"
	"github.com/jonathan/interview-kit/internal/types"
)

const skillColumns = `id, record_id, name, level, requirement, category, priority, external_id, deleted, deletion_reason`

type scanner interface {
	Scan(dest ...any) error
}

func scanSkill(row scanner) (*types.Skill, error) {
	var (
		s           types.Skill
		level       *string
		requirement *string
		deleted     bool
		reason      *string
	)
	if err := row.Scan(&s.ID, &s.RecordID, &s.Name, &level, &requirement, &s.Category,
		&s.Priority, &s.ExternalID, &deleted, &reason); err != nil {
		return nil, err
	}
	if level != nil {
		s.Level = types.Level(*level)
	}
	if requirement != nil {
		s.Requirement = types.Requirement(*requirement)
	}
	s.State = types.StateFromColumns(deleted, reason)
	return &s, nil
}

// CreateSkill inserts a skill and returns it with its generated id.
func (db *DB) CreateSkill(ctx context.Context, s types.Skill) (*types.Skill, error) {
	row := db.pool.QueryRow(ctx,
		`INSERT INTO skills (record_id, name, level, requirement, category, priority, external_id, deleted, deletion_reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		 RETURNING `+skillColumns,
		s.RecordID, s.Name, nullable(string(s.Level)), nullable(string(s.Requirement)), s.Category,
		s.Priority, s.ExternalID, s.State.IsDeleted(), s.State.ReasonColumn(),
	)
	created, err := scanSkill(row)
	if err != nil {
		return nil, fmt.Errorf("failed to create skill: %w", err)
	}
	return created, nil
}

// GetSkill retrieves a skill by id, including soft-deleted ones
func (db *DB) GetSkill(ctx context.Context, id int64) (*types.Skill, error) {
	s, err := scanSkill(db.pool.QueryRow(ctx, `SELECT `+skillColumns+` FROM skills WHERE id = $1`, id))
	if isNoRows(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get skill: %w", err)
	}
	return s, nil
}

// ListSkills returns every skill of a record ordered by id, including soft-deleted ones
func (db *DB) ListSkills(ctx context.Context, recordID int64) ([]types.Skill, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT `+skillColumns+` FROM skills WHERE record_id = $1 ORDER BY id`, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	var skills []types.Skill
	for rows.Next() {
		s, err := scanSkill(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		skills = append(skills, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating skills: %w", err)
	}
	return skills, nil
}

// PatchSkill applies the non-nil fields of p. A state change always rewrites deletion_reason.
func (w *writer) PatchSkill(ctx context.Context, p types.SkillPatch) error {
	deleted, reason := stateArgs(p.State)
	var level, requirement *string
	if p.Level != nil {
		level = nullable(string(*p.Level))
	}
	if p.Requirement != nil {
		requirement = nullable(string(*p.Requirement))
	}

	tag, err := w.q.Exec(ctx,
		`UPDATE skills SET
			deleted = COALESCE($2, deleted),
			deletion_reason = CASE WHEN $2::boolean IS NULL THEN deletion_reason ELSE $3 END,
			external_id = COALESCE($4, external_id),
			name = COALESCE($5, name),
			level = COALESCE($6, level),
			requirement = COALESCE($7, requirement),
			updated_at = NOW()
		 WHERE id = $1`,
		p.SkillID, deleted, reason, p.ExternalID, p.Name, level, requirement,
	)
	if err != nil {
		return fmt.Errorf("failed to patch skill %d: %w", p.SkillID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("skill %d: %w", p.SkillID, apperrors.ErrNotFound)
	}
	return nil
}

func stateArgs(s *types.State) (*bool, *string) {
	if s == nil {
		return nil, nil
	}
	deleted := s.IsDeleted()
	return &deleted, s.ReasonColumn()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
