// Package tasks implements task operations on top of a document store: creating and
// editing tasks, status changes, reassignment, deletion, and the paged list scopes.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/rshade/planfocus/internal/access"
	"github.com/rshade/planfocus/internal/logging"
	"github.com/rshade/planfocus/internal/pagination"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/store"
)

// ErrNotAllowed is returned when the actor may not delete or change a task.
var ErrNotAllowed = errors.New("not allowed")

// Service performs task operations on behalf of one session.
type Service struct {
	store           store.Store
	session         access.Session
	forceClientSort bool
	now             func() time.Time
}

// NewService creates a Service acting as session.
func NewService(s store.Store, session access.Session) *Service {
	return &Service{
		store:   s,
		session: session,
		now:     time.Now,
	}
}

// WithClientSort forces list fetchers to sort in memory.
func (s *Service) WithClientSort(force bool) *Service {
	s.forceClientSort = force
	return s
}

// WithClock replaces the time source used by DueSoon.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Session returns the acting session.
func (s *Service) Session() access.Session {
	return s.session
}

func (s *Service) logger(ctx context.Context, operation string) *zerolog.Logger {
	l := logging.FromContext(ctx).With().
		Str("component", "tasks").
		Str("operation", operation).
		Str("actor_id", s.session.ActorID).
		Logger()
	return &l
}

// Create stores a new task assigned by the session's actor.
func (s *Service) Create(ctx context.Context, t record.Task) (record.Task, error) {
	if err := s.session.Require(access.CreateTask); err != nil {
		return record.Task{}, err
	}

	t.AssignerUserID = s.session.ActorID
	t.AssignerName = s.session.ActorName
	t = t.WithDefaults()
	if err := t.Validate(); err != nil {
		return record.Task{}, err
	}

	created, err := s.store.Create(ctx, store.CollectionTasks, t.ToRecord())
	if err != nil {
		return record.Task{}, fmt.Errorf("creating task: %w", err)
	}

	s.logger(ctx, "create").Info().Ctx(ctx).Str("task_id", created.ID()).Msg("task created")
	return record.TaskFromRecord(created), nil
}

// Get loads one task.
func (s *Service) Get(ctx context.Context, id string) (record.Task, error) {
	rec, err := s.store.Get(ctx, store.CollectionTasks, id)
	if err != nil {
		return record.Task{}, fmt.Errorf("loading task %s: %w", id, err)
	}
	return record.TaskFromRecord(rec), nil
}

// Update replaces the editable fields of a task.
func (s *Service) Update(ctx context.Context, t record.Task) (record.Task, error) {
	if err := s.session.Require(access.EditTask); err != nil {
		return record.Task{}, err
	}
	if t.ID == "" {
		return record.Task{}, fmt.Errorf("%w: id is required", record.ErrInvalidTask)
	}
	t = t.WithDefaults()
	if err := t.Validate(); err != nil {
		return record.Task{}, err
	}

	patch := t.ToRecord()
	delete(patch, record.FieldUpdatedAt)
	return s.patch(ctx, "update", t.ID, patch)
}

// UpdateStatus changes a task's status. The assignee may always do this; anyone
// else needs EditTask.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (record.Task, error) {
	if !record.IsValidStatus(status) {
		return record.Task{}, fmt.Errorf("%w: unknown status %q", record.ErrInvalidTask, status)
	}
	if err := s.requireAssigneeOr(ctx, id, access.EditTask); err != nil {
		return record.Task{}, err
	}
	return s.patch(ctx, "update_status", id, record.Record{record.TaskStatus: status})
}

// Reassign hands a task to another user and resets it to pending.
func (s *Service) Reassign(ctx context.Context, id, userID, userName string) (record.Task, error) {
	if err := s.session.Require(access.AssignTask); err != nil {
		return record.Task{}, err
	}
	if userID == "" {
		return record.Task{}, fmt.Errorf("%w: assignee is required", record.ErrInvalidTask)
	}
	return s.patch(ctx, "reassign", id, record.Record{
		record.TaskAssignedToUserID: userID,
		record.TaskAssignedToName:   userName,
		record.TaskStatus:           record.StatusPending,
	})
}

// UpdateDueDate sets a task's due date. A zero time clears it.
func (s *Service) UpdateDueDate(ctx context.Context, id string, due time.Time) (record.Task, error) {
	if err := s.requireAssigneeOr(ctx, id, access.EditTask); err != nil {
		return record.Task{}, err
	}
	var value any
	if !due.IsZero() {
		value = due
	}
	return s.patch(ctx, "update_due_date", id, record.Record{record.TaskDueDate: value})
}

// Delete removes a task. Only the user who assigned it, or a DeleteTask holder, may.
func (s *Service) Delete(ctx context.Context, id string) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if !s.session.IsActor(t.AssignerUserID) && !s.session.Can(access.DeleteTask) {
		return fmt.Errorf("%w: only the assigner can delete task %s", ErrNotAllowed, id)
	}
	if err := s.store.Delete(ctx, store.CollectionTasks, id); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}
	s.logger(ctx, "delete").Info().Ctx(ctx).Str("task_id", id).Msg("task deleted")
	return nil
}

// DueSoon returns unfinished tasks due between now and the given number of days
// from now, earliest first.
func (s *Service) DueSoon(ctx context.Context, days int) ([]record.Task, error) {
	res, err := s.store.Query(ctx, store.Query{Collection: store.CollectionTasks})
	if err != nil {
		return nil, fmt.Errorf("loading tasks: %w", err)
	}

	now := s.now()
	until := now.AddDate(0, 0, days)
	due := make([]record.Record, 0, len(res.Records))
	for _, rec := range res.Records {
		t, ok := rec.Time(record.TaskDueDate)
		if !ok || t.Before(now) || t.After(until) {
			continue
		}
		if status, _ := rec.String(record.TaskStatus); status == record.StatusCompleted {
			continue
		}
		due = append(due, rec)
	}

	sorted := pagination.SortStable(due, pagination.ByTime(record.TaskDueDate, false))
	out := make([]record.Task, 0, len(sorted))
	for _, rec := range sorted {
		out = append(out, record.TaskFromRecord(rec))
	}
	return out, nil
}

func (s *Service) requireAssigneeOr(ctx context.Context, id string, p access.Permission) error {
	if s.session.Can(p) {
		return nil
	}
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if s.session.IsActor(t.AssignedToUserID) {
		return nil
	}
	return &access.PermissionError{Role: s.session.Role, Permission: p}
}

func (s *Service) patch(ctx context.Context, operation, id string, patch record.Record) (record.Task, error) {
	updated, err := s.store.Update(ctx, store.CollectionTasks, id, patch)
	if err != nil {
		return record.Task{}, fmt.Errorf("updating task %s: %w", id, err)
	}
	s.logger(ctx, operation).Debug().Ctx(ctx).Str("task_id", id).Msg("task updated")
	return record.TaskFromRecord(updated), nil
}
