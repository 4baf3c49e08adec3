// Package syncer runs one reconciliation of a record against the recruiting platform:
// fetch the snapshot, pick the round, diff, and apply the mutations in batches.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/interview-kit/internal/apperrors"
	"github.com/jonathan/interview-kit/internal/batch"
	"github.com/jonathan/interview-kit/internal/platform"
	"github.com/jonathan/interview-kit/internal/reconcile"
	"github.com/jonathan/interview-kit/internal/store"
	"github.com/jonathan/interview-kit/internal/synclock"
	"github.com/jonathan/interview-kit/internal/types"
)

// Fetcher loads a requisition snapshot from the recruiting platform.
type Fetcher interface {
	GetRequisitionDetails(ctx context.Context, reqID, userID string) (*platform.Snapshot, error)
}

// Summary is the response of a sync.
type Summary struct {
	reconcile.Counts
	RecordID int64  `json:"recordId"`
	RoundID  *int64 `json:"roundId"`
}

// Plan is the outcome of a sync that was computed but not applied.
type Plan struct {
	Summary
	Result *reconcile.Result `json:"plan"`
}

// Service orchestrates reconciliation runs.
type Service struct {
	store   store.Store
	fetcher Fetcher
	locker  synclock.Locker
	apply   batch.Options
	logger  *zap.Logger
}

// NewService creates a Service. A nil locker means a process-local MemoryLocker.
func NewService(st store.Store, fetcher Fetcher, locker synclock.Locker, apply batch.Options, logger *zap.Logger) *Service {
	if locker == nil {
		locker = synclock.NewMemoryLocker()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if apply.Logger == nil {
		apply.Logger = logger
	}
	return &Service{store: st, fetcher: fetcher, locker: locker, apply: apply, logger: logger}
}

// prepared is everything a sync needs before writing.
type prepared struct {
	roundID *int64
	result  *reconcile.Result
}

// SyncRecord reconciles the record correlated with (reqID, userID) and returns the counts of
// applied mutations. Chunks committed before a failing chunk stay committed; running the
// sync again converges.
func (s *Service) SyncRecord(ctx context.Context, reqID, userID string) (*Summary, error) {
	reqID, userID = strings.TrimSpace(reqID), strings.TrimSpace(userID)
	if err := validate(reqID, userID); err != nil {
		return nil, err
	}

	record, err := s.findRecord(ctx, reqID, userID)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, synclock.RecordKey(reqID, userID))
	if err != nil {
		if errors.Is(err, synclock.ErrLocked) {
			return nil, apperrors.New(apperrors.KindConflict, "a sync is already running for this record", apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("failed to acquire sync lock: %w", err)
	}
	defer release()

	p, err := s.prepare(ctx, record)
	if err != nil {
		return nil, err
	}

	counts, err := batch.Apply(ctx, s.store, p.result.Mutations, s.apply)
	if err != nil {
		s.logger.Error("Sync partially applied",
			zap.Int64("record_id", record.ID),
			zap.Int("committed_changes", counts.Total()),
			zap.Int("planned_mutations", len(p.result.Mutations)),
			zap.Error(err))
		msg := "failed to apply sync changes"
		var chunkErr *batch.ChunkError
		if errors.As(err, &chunkErr) {
			msg = fmt.Sprintf("failed to apply sync changes: chunk %d (%d mutations) failed after %d changes were committed; run the sync again to converge",
				chunkErr.Index, chunkErr.Size, counts.Total())
		}
		return nil, apperrors.New(apperrors.KindInternal, msg, err)
	}

	if p.roundID != nil && (record.RoundID == nil || *record.RoundID != *p.roundID) {
		err := s.store.InTx(ctx, func(w store.Writer) error {
			return w.SetRecordRound(ctx, record.ID, *p.roundID)
		})
		if err != nil {
			return nil, fmt.Errorf("failed to store round id: %w", err)
		}
	}

	s.logger.Info("Record synced",
		zap.Int64("record_id", record.ID),
		zap.Int("mutations", len(p.result.Mutations)),
		zap.Int("skills_deleted", counts.Skills.Deleted),
		zap.Int("skills_undeleted", counts.Skills.Undeleted),
		zap.Int("skills_updated", counts.Skills.Updated),
		zap.Int("questions_deleted", counts.Questions.Deleted),
		zap.Int("questions_undeleted", counts.Questions.Undeleted),
		zap.Int("questions_pool_set", counts.Questions.PoolSet))

	return &Summary{Counts: counts, RecordID: record.ID, RoundID: p.roundID}, nil
}

// Preview computes the mutations SyncRecord would apply without writing anything.
func (s *Service) Preview(ctx context.Context, reqID, userID string) (*Plan, error) {
	reqID, userID = strings.TrimSpace(reqID), strings.TrimSpace(userID)
	if err := validate(reqID, userID); err != nil {
		return nil, err
	}
	record, err := s.findRecord(ctx, reqID, userID)
	if err != nil {
		return nil, err
	}
	p, err := s.prepare(ctx, record)
	if err != nil {
		return nil, err
	}
	return &Plan{
		Summary: Summary{Counts: p.result.Counts(), RecordID: record.ID, RoundID: p.roundID},
		Result:  p.result,
	}, nil
}

func validate(reqID, userID string) error {
	var missing []string
	if reqID == "" {
		missing = append(missing, "req_id")
	}
	if userID == "" {
		missing = append(missing, "user_id")
	}
	if len(missing) > 0 {
		return apperrors.Invalid("missing required field(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

func (s *Service) findRecord(ctx context.Context, reqID, userID string) (*types.Record, error) {
	record, err := s.store.GetRecordByExternal(ctx, reqID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load record: %w", err)
	}
	if record == nil {
		return nil, apperrors.New(apperrors.KindNotFound,
			fmt.Sprintf("no record for request %q and user %q", reqID, userID), nil)
	}
	return record, nil
}

func (s *Service) prepare(ctx context.Context, record *types.Record) (*prepared, error) {
	snapshot, err := s.fetcher.GetRequisitionDetails(ctx, record.ExternalRequestID, record.ExternalUserID)
	if err != nil {
		return nil, apperrors.New(apperrors.KindUpstream, "recruiting platform request failed", err)
	}

	round := snapshot.SelectRound(record.RoundID)
	if round == nil {
		return nil, apperrors.New(apperrors.KindNoData, "recruiting platform returned no rounds", nil)
	}
	if round.UsableEntries() == 0 {
		return nil, apperrors.New(apperrors.KindNoData, "selected round has no skills or questions that can be matched", nil)
	}

	skills, err := s.store.ListSkills(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	questions, err := s.store.ListQuestions(ctx, record.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list questions: %w", err)
	}

	result := reconcile.Reconcile(skills, questions, round)
	s.logger.Debug("Reconciliation computed",
		zap.Int64("record_id", record.ID),
		zap.Any("skills", result.Skills),
		zap.Any("questions", result.Questions))

	return &prepared{roundID: round.RoundID.Int64(), result: result}, nil
}
