// Package batch applies reconciliation mutations in bounded, independently committed transactions.
package batch

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/interview-kit/internal/reconcile"
	"github.com/jonathan/interview-kit/internal/store"
)

// DefaultChunkSize keeps one transaction well below the datastore's parameter limits.
const DefaultChunkSize = 25

// Options configures Apply.
type Options struct {
	// ChunkSize is the maximum number of mutations per transaction. Zero means DefaultChunkSize.
	ChunkSize int
	// Concurrency is the number of chunks applied at once. Zero or one applies them in order.
	Concurrency int
	Logger      *zap.Logger
}

// ChunkError reports which chunk failed. Chunks before it (in sequential mode) stay committed.
type ChunkError struct {
	Index int // zero-based
	Size  int
	Cause error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d (%d mutations) failed: %v", e.Index, e.Size, e.Cause)
}

func (e *ChunkError) Unwrap() error {
	return e.Cause
}

// Chunk splits items into consecutive slices of at most size elements.
func Chunk[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = DefaultChunkSize
	}
	chunks := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		chunks = append(chunks, items[start:end])
	}
	return chunks
}

// Apply writes mutations through runner, one transaction per chunk. It returns the counts
// of every committed chunk, together with a *ChunkError if a chunk failed.
// In sequential mode chunks after the failed one are never started; with Concurrency > 1
// chunks already in flight may still commit.
func Apply(ctx context.Context, runner store.TxRunner, mutations []reconcile.Mutation, opts Options) (reconcile.Counts, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	chunks := Chunk(mutations, opts.ChunkSize)

	var (
		mu        sync.Mutex
		committed reconcile.Counts
	)
	applyChunk := func(ctx context.Context, idx int, chunk []reconcile.Mutation) error {
		err := runner.InTx(ctx, func(w store.Writer) error {
			for _, m := range chunk {
				if err := m.Apply(ctx, w); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			logger.Warn("Mutation chunk failed",
				zap.Int("chunk", idx),
				zap.Int("size", len(chunk)),
				zap.Error(err))
			return &ChunkError{Index: idx, Size: len(chunk), Cause: err}
		}

		counts := reconcile.Tally(chunk)
		mu.Lock()
		committed.Merge(counts)
		mu.Unlock()
		logger.Debug("Mutation chunk committed",
			zap.Int("chunk", idx),
			zap.Int("size", len(chunk)))
		return nil
	}

	if opts.Concurrency <= 1 {
		for i, chunk := range chunks {
			if err := ctx.Err(); err != nil {
				return committed, &ChunkError{Index: i, Size: len(chunk), Cause: err}
			}
			if err := applyChunk(ctx, i, chunk); err != nil {
				return committed, err
			}
		}
		return committed, nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, chunk := range chunks {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return &ChunkError{Index: i, Size: len(chunk), Cause: err}
			}
			return applyChunk(gCtx, i, chunk)
		})
	}
	err := g.Wait()
	return committed, err
}
