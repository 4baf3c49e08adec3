// Package store declares the persistence ports used by the reconciliation and regeneration engines.
// internal/db implements them on PostgreSQL; storetest implements them in memory for tests.
package store

import (
	"context"

	"github.com/jonathan/interview-kit/internal/types"
)

// Reader loads records, skills and questions. Missing rows yield (nil, nil) for single lookups.
type Reader interface {
	GetRecord(ctx context.Context, id int64) (*types.Record, error)
	GetRecordByExternal(ctx context.Context, externalRequestID, externalUserID string) (*types.Record, error)
	GetSkill(ctx context.Context, id int64) (*types.Skill, error)
	GetQuestion(ctx context.Context, id int64) (*types.Question, error)
	// ListSkills and ListQuestions include soft-deleted rows.
	ListSkills(ctx context.Context, recordID int64) ([]types.Skill, error)
	ListQuestions(ctx context.Context, recordID int64) ([]types.Question, error)
	ListRegenerations(ctx context.Context, questionID int64) ([]types.Regeneration, error)
}

// Writer mutates rows. Every Writer handed out by TxRunner.InTx is bound to one transaction.
type Writer interface {
	PatchSkill(ctx context.Context, p types.SkillPatch) error
	PatchQuestion(ctx context.Context, p types.QuestionPatch) error
	// ReplaceQuestionContent overwrites the content blob and resets like state and stored feedback.
	ReplaceQuestionContent(ctx context.Context, questionID int64, content types.QuestionContent) (*types.Question, error)
	CreateQuestion(ctx context.Context, q types.Question) (*types.Question, error)
	InsertRegeneration(ctx context.Context, r types.Regeneration) (*types.Regeneration, error)
	SetRecordRound(ctx context.Context, recordID, roundID int64) error
}

// TxRunner runs fn inside one transaction. If fn returns an error nothing it wrote is kept.
type TxRunner interface {
	InTx(ctx context.Context, fn func(w Writer) error) error
}

// Store is the full persistence port.
type Store interface {
	Reader
	TxRunner
}
