// Package regenerate replaces question content produced by the AI generator and records an
// append-only audit row for every replacement.
package regenerate

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/interview-kit/internal/apperrors"
	"github.com/jonathan/interview-kit/internal/store"
	"github.com/jonathan/interview-kit/internal/types"
)

// DefaultDeletionReason is stored on a retired question when no feedback was given.
const DefaultDeletionReason = "regenerated"

// ErrNoContent is returned when there is no usable replacement payload to apply. Nothing is written.
var ErrNoContent error = apperrors.New(apperrors.KindGenerator, "question generator returned no usable question text", nil)

// Target is a question to replace, with the reason and feedback that triggered it.
type Target struct {
	Question types.Question
	Reason   string
	Feedback *string
}

// Pair links a retired question to the question that replaced it.
type Pair struct {
	Retired      types.Question
	Created      types.Question
	Regeneration types.Regeneration
}

// Outcome is the result of RetireAndRecreate.
type Outcome struct {
	Pairs []Pair
	// Shortfall is the number of targets left untouched because fewer payloads than targets were supplied.
	Shortfall int
}

// Engine applies replacement payloads through a transaction's writer.
type Engine struct {
	logger *zap.Logger
}

// NewEngine creates an Engine.
func NewEngine(logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{logger: logger}
}

// InPlace overwrites the content of q, resets its like state and stored feedback, and appends
// a regeneration row whose origin and result are both q.
func (e *Engine) InPlace(ctx context.Context, w store.Writer, q types.Question, content types.QuestionContent, reason string, feedback *string) (*types.Question, *types.Regeneration, error) {
	if strings.TrimSpace(content.Question) == "" {
		return nil, nil, ErrNoContent
	}

	updated, err := w.ReplaceQuestionContent(ctx, q.ID, content)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to replace content of question %d: %w", q.ID, err)
	}

	regen, err := w.InsertRegeneration(ctx, types.Regeneration{
		OriginQuestionID: q.ID,
		ResultQuestionID: q.ID,
		Reason:           reason,
		Feedback:         feedback,
		SkillID:          q.SkillID,
		RecordID:         q.RecordID,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to record regeneration of question %d: %w", q.ID, err)
	}

	e.logger.Info("Question regenerated in place",
		zap.Int64("question_id", q.ID),
		zap.String("reason", reason))
	return updated, regen, nil
}

// RetireAndRecreate soft-deletes targets and creates one new question per target under the
// same skill and record. Only min(len(targets), len(contents)) pairs are processed: the
// remaining targets stay active and are reported as Shortfall. With no contents nothing is written.
func (e *Engine) RetireAndRecreate(ctx context.Context, w store.Writer, targets []Target, contents []types.QuestionContent) (*Outcome, error) {
	n := min(len(targets), len(contents))
	if n == 0 {
		return nil, ErrNoContent
	}
	for i := range n {
		if strings.TrimSpace(contents[i].Question) == "" {
			return nil, ErrNoContent
		}
	}
	out := &Outcome{
		Pairs:     make([]Pair, n),
		Shortfall: len(targets) - n,
	}
	targets = targets[:n]

	for i, t := range targets {
		st := types.Deleted(deletionReason(t.Feedback))
		if err := w.PatchQuestion(ctx, types.QuestionPatch{QuestionID: t.Question.ID, State: &st}); err != nil {
			return nil, fmt.Errorf("failed to retire question %d: %w", t.Question.ID, err)
		}
		retired := t.Question
		retired.State = st
		out.Pairs[i].Retired = retired
	}

	for i, t := range targets {
		created, err := w.CreateQuestion(ctx, types.Question{
			RecordID: t.Question.RecordID,
			SkillID:  t.Question.SkillID,
			Content:  contents[i],
			State:    types.Active(),
			Like:     types.LikeNone,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create replacement for question %d: %w", t.Question.ID, err)
		}

		regen, err := w.InsertRegeneration(ctx, types.Regeneration{
			OriginQuestionID: t.Question.ID,
			ResultQuestionID: created.ID,
			Reason:           t.Reason,
			Feedback:         t.Feedback,
			SkillID:          t.Question.SkillID,
			RecordID:         t.Question.RecordID,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to record regeneration of question %d: %w", t.Question.ID, err)
		}

		out.Pairs[i].Created = *created
		out.Pairs[i].Regeneration = *regen
		e.logger.Info("Question retired and recreated",
			zap.Int64("origin_question_id", t.Question.ID),
			zap.Int64("result_question_id", created.ID),
			zap.String("reason", t.Reason))
	}
	return out, nil
}

func deletionReason(feedback *string) string {
	if feedback != nil {
		if f := strings.TrimSpace(*feedback); f != "" {
			return f
		}
	}
	return DefaultDeletionReason
}
