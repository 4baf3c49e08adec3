package regenerate

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/interview-kit/internal/apperrors"
	"github.com/jonathan/interview-kit/internal/generation"
	"github.com/jonathan/interview-kit/internal/llm"
	"github.com/jonathan/interview-kit/internal/prompts"
	"github.com/jonathan/interview-kit/internal/store"
	"github.com/jonathan/interview-kit/internal/types"
)

// Strategy selects how a single-question regeneration is applied.
type Strategy string

// Strategy values
const (
	StrategyRetire  Strategy = "retire"   // soft-delete and create a successor
	StrategyInPlace Strategy = "in_place" // overwrite the content of the same question
)

// ParseStrategy validates a configured strategy. Empty means StrategyRetire.
func ParseStrategy(s string) (Strategy, error) {
	switch st := Strategy(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return StrategyRetire, nil
	case StrategyRetire, StrategyInPlace:
		return st, nil
	}
	return "", fmt.Errorf("invalid regeneration strategy %q", s)
}

// Reason labels stored on regeneration rows when the caller gives none.
const (
	ReasonDisliked = "disliked"
	ReasonFeedback = "feedback"
)

// Options configures a Service.
type Options struct {
	// Strategy applies to RegenerateQuestion. Batch regeneration always retires.
	Strategy Strategy
	Tier     llm.ModelTier
	// Concurrency bounds parallel generator calls in a batch (one call per skill).
	Concurrency int
}

// FeedbackItem targets one question of a batch.
type FeedbackItem struct {
	QuestionID int64  `json:"question_id"`
	Feedback   string `json:"feedback"`
}

// BatchResult summarizes RegenerateWithFeedback.
type BatchResult struct {
	Requested   int              `json:"requested"`
	Regenerated int              `json:"regenerated"`
	Shortfall   int              `json:"shortfall"`
	Warnings    []string         `json:"warnings,omitempty"`
	Questions   []types.Question `json:"questions"`
}

// Service runs generator calls and applies their output with the Engine.
type Service struct {
	store     store.Store
	generator llm.Client
	engine    *Engine
	opts      Options
	logger    *zap.Logger
}

// NewService creates a Service.
func NewService(st store.Store, generator llm.Client, opts Options, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Strategy == "" {
		opts.Strategy = StrategyRetire
	}
	if opts.Tier == "" {
		opts.Tier = llm.TierStandard
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = 2
	}
	return &Service{
		store:     st,
		generator: generator,
		engine:    NewEngine(logger),
		opts:      opts,
		logger:    logger,
	}
}

// RegenerateQuestion generates one replacement for a question and applies it with the
// configured strategy. It returns the question now holding the new content.
func (s *Service) RegenerateQuestion(ctx context.Context, questionID int64, reason string, feedback *string) (*types.Question, error) {
	if questionID <= 0 {
		return nil, apperrors.Invalid("question id must be a positive integer")
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = ReasonDisliked
	}
	feedback = trimmed(feedback)

	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question %d: %w", questionID, err)
	}
	if q == nil {
		return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("question %d not found", questionID), nil)
	}
	if q.State.IsDeleted() {
		return nil, apperrors.Invalid("question %d is deleted and cannot be regenerated", questionID)
	}
	skill, err := s.store.GetSkill(ctx, q.SkillID)
	if err != nil {
		return nil, fmt.Errorf("failed to load skill %d: %w", q.SkillID, err)
	}

	prompt := prompts.Format(prompts.MustGet(prompts.QuestionsFile, "regenerate-question"), skillData(skill, map[string]string{
		"Question": q.Content.Question,
		"Answer":   q.Content.Answer,
		"Reason":   reason,
		"Feedback": valueOr(feedback, "none"),
	}))

	res, err := s.generate(ctx, prompt, 1)
	if err != nil {
		return nil, err
	}
	if len(res.Questions) == 0 {
		return nil, apperrors.New(apperrors.KindGenerator, "question generator returned no questions", nil)
	}

	var result *types.Question
	err = s.store.InTx(ctx, func(w store.Writer) error {
		if s.opts.Strategy == StrategyInPlace {
			updated, _, err := s.engine.InPlace(ctx, w, *q, res.Questions[0], reason, feedback)
			if err != nil {
				return err
			}
			result = updated
			return nil
		}
		out, err := s.engine.RetireAndRecreate(ctx, w, []Target{{Question: *q, Reason: reason, Feedback: feedback}}, res.Questions[:1])
		if err != nil {
			return err
		}
		result = &out.Pairs[0].Created
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply regenerated question: %w", err)
	}
	return result, nil
}

// RegenerateWithFeedback retires the listed questions of a record and replaces each with a
// freshly generated one. Generator calls are made per skill before anything is written; all
// replacements are then applied in one transaction. If the generator returns fewer questions
// than requested for a skill, the extra targets are left untouched and counted as Shortfall.
func (s *Service) RegenerateWithFeedback(ctx context.Context, recordID int64, items []FeedbackItem, globalFeedback string) (*BatchResult, error) {
	if recordID <= 0 {
		return nil, apperrors.Invalid("record id must be a positive integer")
	}
	if len(items) == 0 {
		return nil, apperrors.Invalid("at least one question is required")
	}
	globalFeedback = strings.TrimSpace(globalFeedback)
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		if it.QuestionID <= 0 {
			return nil, apperrors.Invalid("question id must be a positive integer")
		}
		if seen[it.QuestionID] {
			return nil, apperrors.Invalid("question %d is listed twice", it.QuestionID)
		}
		seen[it.QuestionID] = true
		if strings.TrimSpace(it.Feedback) == "" && globalFeedback == "" {
			return nil, apperrors.Invalid("feedback is required for question %d", it.QuestionID)
		}
	}

	record, err := s.store.GetRecord(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to load record %d: %w", recordID, err)
	}
	if record == nil {
		return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("record %d not found", recordID), nil)
	}

	groups, err := s.buildGroups(ctx, recordID, items, globalFeedback)
	if err != nil {
		return nil, err
	}

	results := make([]*generation.Result, len(groups))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for i, grp := range groups {
		g.Go(func() error {
			res, err := s.generate(gCtx, grp.prompt(globalFeedback), len(grp.targets))
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	batch := &BatchResult{Requested: len(items)}
	produced := 0
	for i, res := range results {
		produced += len(res.Questions)
		for _, w := range res.Warnings {
			batch.Warnings = append(batch.Warnings, fmt.Sprintf("skill %d: %s", groups[i].skillID, w))
		}
	}
	if produced == 0 {
		return nil, apperrors.New(apperrors.KindGenerator, "question generator returned no questions", nil)
	}

	err = s.store.InTx(ctx, func(w store.Writer) error {
		for i, grp := range groups {
			if len(results[i].Questions) == 0 {
				batch.Shortfall += len(grp.targets)
				continue
			}
			out, err := s.engine.RetireAndRecreate(ctx, w, grp.targets, results[i].Questions)
			if err != nil {
				return err
			}
			batch.Shortfall += out.Shortfall
			for _, p := range out.Pairs {
				batch.Questions = append(batch.Questions, p.Created)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply regenerated questions: %w", err)
	}
	batch.Regenerated = len(batch.Questions)

	s.logger.Info("Batch regeneration completed",
		zap.Int64("record_id", recordID),
		zap.Int("requested", batch.Requested),
		zap.Int("regenerated", batch.Regenerated),
		zap.Int("shortfall", batch.Shortfall))
	return batch, nil
}

// History returns the regeneration rows that reference a question as origin or result.
func (s *Service) History(ctx context.Context, questionID int64) ([]types.Regeneration, error) {
	if questionID <= 0 {
		return nil, apperrors.Invalid("question id must be a positive integer")
	}
	q, err := s.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load question %d: %w", questionID, err)
	}
	if q == nil {
		return nil, apperrors.New(apperrors.KindNotFound, fmt.Sprintf("question %d not found", questionID), nil)
	}
	history, err := s.store.ListRegenerations(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list regenerations of question %d: %w", questionID, err)
	}
	return history, nil
}

func (s *Service) generate(ctx context.Context, prompt string, expected int) (*generation.Result, error) {
	raw, err := s.generator.GenerateJSON(ctx, prompt, s.opts.Tier)
	if err != nil {
		s.logger.Warn("Question generator failed", zap.Error(err), zap.Bool("timeout", llm.IsTimeout(err)))
		return nil, apperrors.New(apperrors.KindGenerator, "question generator failed", err)
	}
	res, err := generation.ParseGeneratedQuestions(raw, expected)
	if err != nil {
		s.logger.Warn("Question generator returned malformed output",
			zap.Error(err),
			zap.Int("output_len", len(raw)))
		if errors.Is(err, generation.ErrMalformedOutput) {
			return nil, apperrors.New(apperrors.KindGenerator, "question generator returned malformed output", err)
		}
		return nil, err
	}
	for _, w := range res.Warnings {
		s.logger.Warn("Question generator output", zap.String("warning", w))
	}
	return res, nil
}

type skillGroup struct {
	skillID int64
	skill   *types.Skill
	targets []Target
}

// buildGroups resolves feedback items to active questions of the record and groups them by
// skill in order of first appearance.
func (s *Service) buildGroups(ctx context.Context, recordID int64, items []FeedbackItem, globalFeedback string) ([]*skillGroup, error) {
	questions, err := s.store.ListQuestions(ctx, recordID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions of record %d: %w", recordID, err)
	}
	byID := make(map[int64]types.Question, len(questions))
	for _, q := range questions {
		byID[q.ID] = q
	}

	var groups []*skillGroup
	index := map[int64]*skillGroup{}
	for _, it := range items {
		q, ok := byID[it.QuestionID]
		if !ok {
			return nil, apperrors.New(apperrors.KindNotFound,
				fmt.Sprintf("question %d not found in record %d", it.QuestionID, recordID), nil)
		}
		if q.State.IsDeleted() {
			return nil, apperrors.Invalid("question %d is deleted and cannot be regenerated", q.ID)
		}

		grp, ok := index[q.SkillID]
		if !ok {
			skill, err := s.store.GetSkill(ctx, q.SkillID)
			if err != nil {
				return nil, fmt.Errorf("failed to load skill %d: %w", q.SkillID, err)
			}
			grp = &skillGroup{skillID: q.SkillID, skill: skill}
			index[q.SkillID] = grp
			groups = append(groups, grp)
		}
		grp.targets = append(grp.targets, Target{
			Question: q,
			Reason:   ReasonFeedback,
			Feedback: combineFeedback(it.Feedback, globalFeedback),
		})
	}
	return groups, nil
}

func (g *skillGroup) prompt(globalFeedback string) string {
	var rejected strings.Builder
	for i, t := range g.targets {
		fmt.Fprintf(&rejected, "%d. Question: %s\n   Feedback: %s\n", i+1, t.Question.Content.Question, valueOr(t.Feedback, "none"))
	}
	if globalFeedback == "" {
		globalFeedback = "none"
	}
	return prompts.Format(prompts.MustGet(prompts.QuestionsFile, "regenerate-batch"), skillData(g.skill, map[string]string{
		"Count":    strconv.Itoa(len(g.targets)),
		"Rejected": strings.TrimRight(rejected.String(), "\n"),
		"Feedback": globalFeedback,
	}))
}

func skillData(skill *types.Skill, data map[string]string) map[string]string {
	if skill == nil {
		skill = &types.Skill{Name: "unknown"}
	}
	data["SkillName"] = skill.Name
	data["SkillLevel"] = strings.ToLower(string(skill.Level))
	data["Requirement"] = strings.ToLower(string(skill.Requirement))
	data["Category"] = skill.Category
	return data
}

func combineFeedback(item, global string) *string {
	parts := make([]string, 0, 2)
	for _, p := range []string{item, global} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return nil
	}
	combined := strings.Join(parts, "\n")
	return &combined
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	if t == "" {
		return nil
	}
	return &t
}

func valueOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
