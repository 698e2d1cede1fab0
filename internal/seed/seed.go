// Package seed loads tasks and budgets from a YAML file into a store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"

	"gopkg.in/yaml.v3"

	"github.com/rshade/planfocus/internal/batch"
	"github.com/rshade/planfocus/internal/budgets"
	"github.com/rshade/planfocus/internal/logging"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/tasks"
)

// ErrInvalidSeed is returned for unreadable seed files and invalid entries.
var ErrInvalidSeed = errors.New("invalid seed")

// File is the seed file layout.
type File struct {
	Tasks   []record.Task   `yaml:"tasks"`
	Budgets []record.Budget `yaml:"budgets"`
}

// Load reads and validates a seed file.
func Load(path string) (File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("reading seed %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, fmt.Errorf("%w: parsing %s: %w", ErrInvalidSeed, path, err)
	}
	if err := f.Validate(); err != nil {
		return File{}, err
	}
	return f, nil
}

// Validate checks every entry and reports all failures.
func (f File) Validate() error {
	var errs []error
	for i, t := range f.Tasks {
		if err := t.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("tasks[%d]: %w", i, err))
		}
	}
	for i, b := range f.Budgets {
		if err := b.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("budgets[%d]: %w", i, err))
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidSeed, errors.Join(errs...))
}

// Options tune an import.
type Options struct {
	BatchSize   int
	Concurrency int
}

// Result counts what was imported.
type Result struct {
	Tasks   int
	Budgets int
}

// Import creates every task and budget of f through the services, so the
// session's permissions apply. Budgets marked approved are approved after creation.
// Import keeps going after a failed batch and returns the joined errors.
func Import(ctx context.Context, ts *tasks.Service, bs *budgets.Service, f File, opts Options) (Result, error) {
	if opts.BatchSize == 0 {
		opts.BatchSize = batch.DefaultBatchSize
	}
	logger := logging.FromContext(ctx).With().Str("component", "seed").Logger()

	var imported struct{ tasks, budgets atomic.Int64 }
	var errs []error

	if len(f.Tasks) > 0 {
		p, err := batch.NewProcessor[record.Task](opts.BatchSize)
		if err != nil {
			return Result{}, err
		}
		p.WithProgressCallback(batch.LogProgress(logger, "tasks"))
		errs = append(errs, p.ProcessConcurrent(ctx, f.Tasks, func(ctx context.Context, items []record.Task, _ int) error {
			for _, t := range items {
				if _, err := ts.Create(ctx, t); err != nil {
					return fmt.Errorf("task %q: %w", t.Title, err)
				}
				imported.tasks.Add(1)
			}
			return nil
		}, opts.Concurrency))
	}

	if len(f.Budgets) > 0 {
		p, err := batch.NewProcessor[record.Budget](opts.BatchSize)
		if err != nil {
			return Result{}, err
		}
		p.WithProgressCallback(batch.LogProgress(logger, "budgets"))
		errs = append(errs, p.ProcessConcurrent(ctx, f.Budgets, func(ctx context.Context, items []record.Budget, _ int) error {
			for _, b := range items {
				created, err := bs.Create(ctx, b)
				if err != nil {
					return fmt.Errorf("budget %q: %w", b.Title, err)
				}
				if b.Approved {
					if _, err := bs.Approve(ctx, created.ID); err != nil {
						return fmt.Errorf("approving budget %q: %w", b.Title, err)
					}
				}
				imported.budgets.Add(1)
			}
			return nil
		}, opts.Concurrency))
	}

	res := Result{Tasks: int(imported.tasks.Load()), Budgets: int(imported.budgets.Load())}
	logger.Info().
		Ctx(ctx).
		Str("operation", "import").
		Int("tasks", res.Tasks).
		Int("budgets", res.Budgets).
		Msg("seed imported")
	return res, errors.Join(errs...)
}
