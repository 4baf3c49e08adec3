// Package storetest provides an in-memory, transactional store.Store for tests.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"github.com/jonathan/interview-kit/internal/apperrors"
	"github.com/jonathan/interview-kit/internal/store"
	"github.com/jonathan/interview-kit/internal/types"
)

// ErrInjected is returned by InTx when a failure was injected with FailTx.
var ErrInjected = errors.New("injected transaction failure")

type state struct {
	records       map[int64]types.Record
	skills        map[int64]types.Skill
	questions     map[int64]types.Question
	regenerations map[int64]types.Regeneration
	nextID        int64
}

func (s *state) clone() *state {
	return &state{
		records:       maps.Clone(s.records),
		skills:        maps.Clone(s.skills),
		questions:     maps.Clone(s.questions),
		regenerations: maps.Clone(s.regenerations),
		nextID:        s.nextID,
	}
}

// Store is an in-memory store.Store. Transactions work on a copy of the data that
// replaces the committed data only when fn succeeds.
type Store struct {
	mu   sync.Mutex
	txMu sync.Mutex // transactions are serialized
	data *state

	// FailTx, when set, is consulted before committing the n-th transaction (1-based).
	// A non-nil return aborts that transaction.
	FailTx func(n int) error

	txCount int
	// TxSizes records the number of writes each committed or aborted transaction made.
	TxSizes []int
	// Now is used for created timestamps.
	Now func() time.Time
}

var _ store.Store = (*Store)(nil)

// New creates an empty store. Generated ids start at 1000 so they never collide with seeded ids.
func New() *Store {
	return &Store{
		data: &state{
			records:       map[int64]types.Record{},
			skills:        map[int64]types.Skill{},
			questions:     map[int64]types.Question{},
			regenerations: map[int64]types.Regeneration{},
			nextID:        1000,
		},
		Now: time.Now,
	}
}

// AddRecord seeds a record.
func (s *Store) AddRecord(r types.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.records[r.ID] = r
}

// AddSkill seeds a skill.
func (s *Store) AddSkill(sk types.Skill) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.skills[sk.ID] = sk
}

// AddQuestion seeds a question.
func (s *Store) AddQuestion(q types.Question) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.questions[q.ID] = q
}

// TxCount returns how many transactions were started.
func (s *Store) TxCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.txCount
}

// AllRegenerations returns every regeneration row ordered by id.
func (s *Store) AllRegenerations() []types.Regeneration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return sortedValues(s.data.regenerations, func(r types.Regeneration) int64 { return r.ID })
}

// GetRecord implements store.Reader.
func (s *Store) GetRecord(_ context.Context, id int64) (*types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.records[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

// GetRecordByExternal implements store.Reader.
func (s *Store) GetRecordByExternal(_ context.Context, reqID, userID string) (*types.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.data.records {
		if r.ExternalRequestID == reqID && r.ExternalUserID == userID {
			return &r, nil
		}
	}
	return nil, nil
}

// GetSkill implements store.Reader.
func (s *Store) GetSkill(_ context.Context, id int64) (*types.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sk, ok := s.data.skills[id]
	if !ok {
		return nil, nil
	}
	return &sk, nil
}

// GetQuestion implements store.Reader.
func (s *Store) GetQuestion(_ context.Context, id int64) (*types.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.data.questions[id]
	if !ok {
		return nil, nil
	}
	return &q, nil
}

// ListSkills implements store.Reader.
func (s *Store) ListSkills(_ context.Context, recordID int64) ([]types.Skill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := sortedValues(s.data.skills, func(sk types.Skill) int64 { return sk.ID })
	return slices.DeleteFunc(all, func(sk types.Skill) bool { return sk.RecordID != recordID }), nil
}

// ListQuestions implements store.Reader.
func (s *Store) ListQuestions(_ context.Context, recordID int64) ([]types.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := sortedValues(s.data.questions, func(q types.Question) int64 { return q.ID })
	return slices.DeleteFunc(all, func(q types.Question) bool { return q.RecordID != recordID }), nil
}

// ListRegenerations implements store.Reader.
func (s *Store) ListRegenerations(_ context.Context, questionID int64) ([]types.Regeneration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := sortedValues(s.data.regenerations, func(r types.Regeneration) int64 { return r.ID })
	return slices.DeleteFunc(all, func(r types.Regeneration) bool {
		return r.OriginQuestionID != questionID && r.ResultQuestionID != questionID
	}), nil
}

// InTx implements store.TxRunner.
func (s *Store) InTx(ctx context.Context, fn func(w store.Writer) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	s.txCount++
	n := s.txCount
	w := &writer{data: s.data.clone(), now: s.Now}
	s.mu.Unlock()

	err := fn(w)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.TxSizes = append(s.TxSizes, w.writes)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.FailTx != nil {
		if ferr := s.FailTx(n); ferr != nil {
			return ferr
		}
	}
	s.data = w.data
	return nil
}

type writer struct {
	data   *state
	now    func() time.Time
	writes int
}

func (w *writer) id() int64 {
	w.data.nextID++
	return w.data.nextID
}

func (w *writer) PatchSkill(_ context.Context, p types.SkillPatch) error {
	w.writes++
	sk, ok := w.data.skills[p.SkillID]
	if !ok {
		return fmt.Errorf("skill %d: %w", p.SkillID, apperrors.ErrNotFound)
	}
	if p.State != nil {
		sk.State = *p.State
	}
	if p.ExternalID != nil {
		v := *p.ExternalID
		sk.ExternalID = &v
	}
	if p.Name != nil {
		sk.Name = *p.Name
	}
	if p.Level != nil {
		sk.Level = *p.Level
	}
	if p.Requirement != nil {
		sk.Requirement = *p.Requirement
	}
	w.data.skills[sk.ID] = sk
	return nil
}

func (w *writer) PatchQuestion(_ context.Context, p types.QuestionPatch) error {
	w.writes++
	q, ok := w.data.questions[p.QuestionID]
	if !ok {
		return fmt.Errorf("question %d: %w", p.QuestionID, apperrors.ErrNotFound)
	}
	if p.State != nil {
		q.State = *p.State
	}
	if p.ExternalPoolID != nil {
		v := *p.ExternalPoolID
		q.ExternalPoolID = &v
	}
	w.data.questions[q.ID] = q
	return nil
}

func (w *writer) ReplaceQuestionContent(_ context.Context, id int64, content types.QuestionContent) (*types.Question, error) {
	w.writes++
	q, ok := w.data.questions[id]
	if !ok {
		return nil, fmt.Errorf("question %d: %w", id, apperrors.ErrNotFound)
	}
	q.Content = content
	q.Like = types.LikeNone
	q.Feedback = nil
	w.data.questions[id] = q
	return &q, nil
}

func (w *writer) CreateQuestion(_ context.Context, q types.Question) (*types.Question, error) {
	w.writes++
	q.ID = w.id()
	if q.Like == "" {
		q.Like = types.LikeNone
	}
	w.data.questions[q.ID] = q
	return &q, nil
}

func (w *writer) InsertRegeneration(_ context.Context, r types.Regeneration) (*types.Regeneration, error) {
	w.writes++
	r.ID = w.id()
	r.CreatedAt = w.now()
	w.data.regenerations[r.ID] = r
	return &r, nil
}

func (w *writer) SetRecordRound(_ context.Context, recordID, roundID int64) error {
	w.writes++
	r, ok := w.data.records[recordID]
	if !ok {
		return fmt.Errorf("record %d: %w", recordID, apperrors.ErrNotFound)
	}
	v := roundID
	r.RoundID = &v
	w.data.records[recordID] = r
	return nil
}

func sortedValues[T any](m map[int64]T, key func(T) int64) []T {
	out := slices.Collect(maps.Values(m))
	slices.SortFunc(out, func(a, b T) int {
		ka, kb := key(a), key(b)
		switch {
		case ka < kb:
			return -1
		case ka > kb:
			return 1
		}
		return 0
	})
	return out
}
