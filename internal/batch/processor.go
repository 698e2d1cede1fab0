package batch

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// Batch size bounds.
const (
	DefaultBatchSize = 100
	MinBatchSize     = 1
	MaxBatchSize     = 1000
)

// Common batch processing errors.
var (
	ErrInvalidBatchSize = errors.New("batch size must be between 1 and 1000")
	ErrNilCallback      = errors.New("batch callback cannot be nil")
	ErrEmptyItems       = errors.New("items slice cannot be empty")
)

// Callback processes one batch. index is 0-based.
type Callback[T any] func(ctx context.Context, batch []T, index int) error

// ProgressCallback is invoked after each successful batch.
type ProgressCallback func(snap Snapshot)

// Processor runs a Callback over fixed-size batches of a slice.
type Processor[T any] struct {
	batchSize  int
	onProgress ProgressCallback
}

// NewProcessor creates a processor with the given batch size.
func NewProcessor[T any](batchSize int) (*Processor[T], error) {
	if batchSize < MinBatchSize || batchSize > MaxBatchSize {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBatchSize, batchSize)
	}
	return &Processor[T]{batchSize: batchSize}, nil
}

// NewProcessorWithDefaults creates a processor with DefaultBatchSize.
func NewProcessorWithDefaults[T any]() *Processor[T] {
	return &Processor[T]{batchSize: DefaultBatchSize}
}

// WithProgressCallback sets the progress callback. Under ProcessConcurrent it may
// be called from several goroutines.
func (p *Processor[T]) WithProgressCallback(callback ProgressCallback) *Processor[T] {
	p.onProgress = callback
	return p
}

// BatchSize returns the configured batch size.
func (p *Processor[T]) BatchSize() int {
	return p.batchSize
}

// Bounds returns the [start, end) index pairs of each batch.
func (p *Processor[T]) Bounds(totalItems int) [][2]int {
	n := (totalItems + p.batchSize - 1) / p.batchSize
	bounds := make([][2]int, n)
	for i := range n {
		start := i * p.batchSize
		bounds[i] = [2]int{start, min(start+p.batchSize, totalItems)}
	}
	return bounds
}

// Process runs callback over each batch in order and stops at the first error.
func (p *Processor[T]) Process(ctx context.Context, items []T, callback Callback[T]) error {
	if err := p.check(items, callback); err != nil {
		return err
	}

	bounds := p.Bounds(len(items))
	progress := NewProgress(len(items), len(bounds))
	for i, b := range bounds {
		if err := ctx.Err(); err != nil {
			return err
		}
		batch := items[b[0]:b[1]]
		if err := callback(ctx, batch, i); err != nil {
			return fmt.Errorf("batch %d failed: %w", i, err)
		}
		p.report(progress, len(batch))
	}
	return nil
}

// ProcessConcurrent runs at most maxConcurrency batches at once. Every batch is
// attempted; the failures are returned joined.
func (p *Processor[T]) ProcessConcurrent(
	ctx context.Context,
	items []T,
	callback Callback[T],
	maxConcurrency int,
) error {
	if err := p.check(items, callback); err != nil {
		return err
	}

	bounds := p.Bounds(len(items))
	progress := NewProgress(len(items), len(bounds))
	errs := make([]error, len(bounds))

	var g errgroup.Group
	g.SetLimit(max(maxConcurrency, 1))
	for i, b := range bounds {
		if err := ctx.Err(); err != nil {
			errs[i] = err
			break
		}
		batch := items[b[0]:b[1]]
		g.Go(func() error {
			if err := callback(ctx, batch, i); err != nil {
				errs[i] = fmt.Errorf("batch %d failed: %w", i, err)
				return nil
			}
			p.report(progress, len(batch))
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

func (p *Processor[T]) check(items []T, callback Callback[T]) error {
	if len(items) == 0 {
		return ErrEmptyItems
	}
	if callback == nil {
		return ErrNilCallback
	}
	return nil
}

func (p *Processor[T]) report(progress *Progress, n int) {
	snap := progress.Add(n)
	if p.onProgress != nil {
		p.onProgress(snap)
	}
}
