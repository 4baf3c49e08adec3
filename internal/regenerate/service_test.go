package regenerate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-kit/internal/apperrors"
	"github.com/jonathan/interview-kit/internal/llm"
	"github.com/jonathan/interview-kit/internal/types"
)

func replyWith(raw string) *llm.MockClient {
	return &llm.MockClient{
		GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
			return raw, nil
		},
	}
}

// questionsFor answers every prompt with as many questions as "exactly N" requests.
func questionsFor(prefix string) *llm.MockClient {
	return &llm.MockClient{
		GenerateJSONFunc: func(_ context.Context, prompt string, _ llm.ModelTier) (string, error) {
			var n int
			if i := strings.Index(prompt, "Write exactly "); i >= 0 {
				_, _ = fmt.Sscanf(prompt[i:], "Write exactly %d", &n)
			}
			items := make([]string, n)
			for i := range items {
				items[i] = fmt.Sprintf(`{"question":"%s %d","answer":"a","difficulty":"easy","is_coding":false}`, prefix, i+1)
			}
			return `{"questions":[` + strings.Join(items, ",") + `]}`, nil
		},
	}
}

func TestParseStrategy(t *testing.T) {
	st, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, StrategyRetire, st)

	st, err = ParseStrategy("IN_PLACE")
	require.NoError(t, err)
	assert.Equal(t, StrategyInPlace, st)

	_, err = ParseStrategy("overwrite")
	assert.Error(t, err)
}

func TestRegenerateQuestion_Retire(t *testing.T) {
	s := seedStore()
	gen := replyWith(`{"question":"What is a channel?","answer":"A typed conduit.","is_coding":false}`)
	svc := NewService(s, gen, Options{}, nil)

	got, err := svc.RegenerateQuestion(context.Background(), 100, "", strp("  more depth "))

	require.NoError(t, err)
	assert.NotEqual(t, int64(100), got.ID)
	assert.Equal(t, "What is a channel?", got.Content.Question)
	assert.True(t, mustQuestion(t, s, 100).State.IsDeleted())

	regens := s.AllRegenerations()
	require.Len(t, regens, 1)
	assert.Equal(t, int64(100), regens[0].OriginQuestionID)
	assert.Equal(t, got.ID, regens[0].ResultQuestionID)
	assert.Equal(t, ReasonDisliked, regens[0].Reason)
	assert.Equal(t, "more depth", *regens[0].Feedback)

	require.Equal(t, 1, gen.Calls())
	assert.Contains(t, gen.Prompts[0], `"Go"`)
	assert.Contains(t, gen.Prompts[0], "old 100")
	assert.Contains(t, gen.Prompts[0], "more depth")
}

func TestRegenerateQuestion_InPlace(t *testing.T) {
	s := seedStore()
	svc := NewService(s, replyWith(`[{"question":"Q new"}]`), Options{Strategy: StrategyInPlace}, nil)

	got, err := svc.RegenerateQuestion(context.Background(), 100, "off topic", nil)

	require.NoError(t, err)
	assert.Equal(t, int64(100), got.ID)
	q := mustQuestion(t, s, 100)
	assert.Equal(t, "Q new", q.Content.Question)
	assert.Equal(t, types.LikeNone, q.Like)
	assert.Nil(t, q.Feedback)

	regens := s.AllRegenerations()
	require.Len(t, regens, 1)
	assert.True(t, regens[0].InPlace())
	assert.Equal(t, "off topic", regens[0].Reason)
	assert.Nil(t, regens[0].Feedback)
}

func TestRegenerateQuestion_Errors(t *testing.T) {
	tests := []struct {
		name     string
		id       int64
		gen      *llm.MockClient
		prepare  func(*testing.T, *Service)
		wantKind apperrors.Kind
	}{
		{name: "invalid id", id: 0, gen: replyWith(`{}`), wantKind: apperrors.KindInvalidInput},
		{name: "missing question", id: 999, gen: replyWith(`{}`), wantKind: apperrors.KindNotFound},
		{name: "malformed output", id: 101, gen: replyWith(`{"foo":"bar"}`), wantKind: apperrors.KindGenerator},
		{name: "empty output", id: 101, gen: replyWith(`[]`), wantKind: apperrors.KindGenerator},
		{name: "blank question text", id: 101, gen: replyWith(`{"question":"  \u00a0 "}`), wantKind: apperrors.KindGenerator},
		{
			name: "generator failure",
			id:   101,
			gen: &llm.MockClient{GenerateJSONFunc: func(context.Context, string, llm.ModelTier) (string, error) {
				return "", errors.New("deadline exceeded")
			}},
			wantKind: apperrors.KindGenerator,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := seedStore()
			svc := NewService(s, tt.gen, Options{}, nil)

			_, err := svc.RegenerateQuestion(context.Background(), tt.id, "", nil)

			require.Error(t, err)
			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
			assert.Empty(t, s.AllRegenerations())
			assert.False(t, mustQuestion(t, s, 101).State.IsDeleted())
			assert.Equal(t, "old 101", mustQuestion(t, s, 101).Content.Question)
		})
	}
}

func TestRegenerateQuestion_DeletedQuestion(t *testing.T) {
	s := seedStore()
	s.AddQuestion(types.Question{ID: 104, RecordID: 1, SkillID: 10, State: types.Deleted("removed from platform")})
	gen := replyWith(`{"question":"Q"}`)
	svc := NewService(s, gen, Options{}, nil)

	_, err := svc.RegenerateQuestion(context.Background(), 104, "", nil)

	assert.Equal(t, apperrors.KindInvalidInput, apperrors.KindOf(err))
	assert.Zero(t, gen.Calls())
}

func TestRegenerateWithFeedback_CountInvariant(t *testing.T) {
	s := seedStore()
	gen := questionsFor("new")
	svc := NewService(s, gen, Options{Concurrency: 2}, nil)
	items := []FeedbackItem{
		{QuestionID: 100, Feedback: "too vague"},
		{QuestionID: 103, Feedback: "wrong dialect"},
		{QuestionID: 101, Feedback: ""},
	}

	res, err := svc.RegenerateWithFeedback(context.Background(), 1, items, "focus on production issues")

	require.NoError(t, err)
	assert.Equal(t, 3, res.Requested)
	assert.Equal(t, 3, res.Regenerated)
	assert.Zero(t, res.Shortfall)
	assert.Len(t, res.Questions, 3)
	assert.Equal(t, 2, gen.Calls(), "one generator call per skill")

	regens := s.AllRegenerations()
	require.Len(t, regens, 3)
	byOrigin := map[int64]types.Regeneration{}
	for _, r := range regens {
		byOrigin[r.OriginQuestionID] = r
	}
	for _, it := range items {
		r, ok := byOrigin[it.QuestionID]
		require.True(t, ok)
		assert.Equal(t, ReasonFeedback, r.Reason)
		assert.True(t, mustQuestion(t, s, it.QuestionID).State.IsDeleted())
		created := mustQuestion(t, s, r.ResultQuestionID)
		assert.False(t, created.State.IsDeleted())
		assert.Equal(t, r.SkillID, created.SkillID)
	}
	assert.Equal(t, "too vague\nfocus on production issues", *byOrigin[100].Feedback)
	assert.Equal(t, "focus on production issues", *byOrigin[101].Feedback)

	// untouched
	assert.False(t, mustQuestion(t, s, 102).State.IsDeleted())
}

func TestRegenerateWithFeedback_Shortfall(t *testing.T) {
	s := seedStore()
	svc := NewService(s, replyWith(`{"questions":[{"question":"only one"}]}`), Options{}, nil)
	items := []FeedbackItem{{QuestionID: 100, Feedback: "a"}, {QuestionID: 101, Feedback: "b"}, {QuestionID: 102, Feedback: "c"}}

	res, err := svc.RegenerateWithFeedback(context.Background(), 1, items, "")

	require.NoError(t, err)
	assert.Equal(t, 1, res.Regenerated)
	assert.Equal(t, 2, res.Shortfall)
	require.NotEmpty(t, res.Warnings)
	assert.Contains(t, res.Warnings[0], "expected 3")
	assert.Len(t, s.AllRegenerations(), 1)
	assert.False(t, mustQuestion(t, s, 102).State.IsDeleted())
}

func TestRegenerateWithFeedback_ZeroOutputWritesNothing(t *testing.T) {
	s := seedStore()
	svc := NewService(s, replyWith(`{"questions":[]}`), Options{}, nil)

	_, err := svc.RegenerateWithFeedback(context.Background(), 1, []FeedbackItem{{QuestionID: 100, Feedback: "x"}}, "")

	assert.Equal(t, apperrors.KindGenerator, apperrors.KindOf(err))
	assert.Empty(t, s.AllRegenerations())
	assert.False(t, mustQuestion(t, s, 100).State.IsDeleted())
	assert.Equal(t, 0, s.TxCount())
}

func TestRegenerateWithFeedback_BlankOutputWritesNothing(t *testing.T) {
	s := seedStore()
	svc := NewService(s, replyWith(`{"questions":[{"question":"   "}]}`), Options{}, nil)

	_, err := svc.RegenerateWithFeedback(context.Background(), 1, []FeedbackItem{{QuestionID: 101, Feedback: "x"}}, "")

	assert.Equal(t, apperrors.KindGenerator, apperrors.KindOf(err))
	assert.Empty(t, s.AllRegenerations())
	assert.False(t, mustQuestion(t, s, 101).State.IsDeleted())
	assert.Equal(t, 0, s.TxCount())
}

func TestRegenerateWithFeedback_Validation(t *testing.T) {
	tests := []struct {
		name     string
		recordID int64
		items    []FeedbackItem
		global   string
		wantKind apperrors.Kind
	}{
		{"bad record id", 0, []FeedbackItem{{QuestionID: 100, Feedback: "x"}}, "", apperrors.KindInvalidInput},
		{"no items", 1, nil, "x", apperrors.KindInvalidInput},
		{"missing feedback", 1, []FeedbackItem{{QuestionID: 100}}, "", apperrors.KindInvalidInput},
		{"duplicate", 1, []FeedbackItem{{QuestionID: 100, Feedback: "x"}, {QuestionID: 100, Feedback: "y"}}, "", apperrors.KindInvalidInput},
		{"unknown record", 2, []FeedbackItem{{QuestionID: 100, Feedback: "x"}}, "", apperrors.KindNotFound},
		{"question of another record", 1, []FeedbackItem{{QuestionID: 555, Feedback: "x"}}, "", apperrors.KindNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := questionsFor("n")
			svc := NewService(seedStore(), gen, Options{}, nil)

			_, err := svc.RegenerateWithFeedback(context.Background(), tt.recordID, tt.items, tt.global)

			assert.Equal(t, tt.wantKind, apperrors.KindOf(err))
			assert.Zero(t, gen.Calls())
		})
	}
}

func TestHistory(t *testing.T) {
	s := seedStore()
	svc := NewService(s, replyWith(`{"question":"v2"}`), Options{Strategy: StrategyInPlace}, nil)
	ctx := context.Background()

	_, err := svc.RegenerateQuestion(ctx, 101, "", nil)
	require.NoError(t, err)
	_, err = svc.RegenerateQuestion(ctx, 101, "still bad", strp("shorter"))
	require.NoError(t, err)

	history, err := svc.History(ctx, 101)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, ReasonDisliked, history[0].Reason)
	assert.Equal(t, "still bad", history[1].Reason)

	_, err = svc.History(ctx, 4242)
	assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
}
