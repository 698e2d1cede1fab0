// Package budgets implements budget requests: creation, approval, revocation, the
// paged list scopes, and the display sorts.
package budgets

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/rshade/planfocus/internal/access"
	"github.com/rshade/planfocus/internal/logging"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/store"
)

// Service performs budget operations on behalf of one session.
type Service struct {
	store           store.Store
	session         access.Session
	forceClientSort bool
}

// NewService creates a Service acting as session.
func NewService(s store.Store, session access.Session) *Service {
	return &Service{store: s, session: session}
}

// WithClientSort forces list fetchers to sort in memory.
func (s *Service) WithClientSort(force bool) *Service {
	s.forceClientSort = force
	return s
}

func (s *Service) logger(ctx context.Context, operation string) *zerolog.Logger {
	l := logging.FromContext(ctx).With().
		Str("component", "budgets").
		Str("operation", operation).
		Str("actor_id", s.session.ActorID).
		Logger()
	return &l
}

// Create stores a new, unapproved budget owned by the session's actor.
func (s *Service) Create(ctx context.Context, b record.Budget) (record.Budget, error) {
	if err := s.session.Require(access.CreateBudget); err != nil {
		return record.Budget{}, err
	}

	b.UserID = s.session.ActorID
	b.Approved = false
	if err := b.Validate(); err != nil {
		return record.Budget{}, err
	}

	created, err := s.store.Create(ctx, store.CollectionBudgets, b.ToRecord())
	if err != nil {
		return record.Budget{}, fmt.Errorf("creating budget: %w", err)
	}

	s.logger(ctx, "create").Info().
		Ctx(ctx).
		Str("budget_id", created.ID()).
		Float64("amount", b.Amount).
		Msg("budget created")
	return record.BudgetFromRecord(created), nil
}

// Get loads one budget.
func (s *Service) Get(ctx context.Context, id string) (record.Budget, error) {
	rec, err := s.store.Get(ctx, store.CollectionBudgets, id)
	if err != nil {
		return record.Budget{}, fmt.Errorf("loading budget %s: %w", id, err)
	}
	return record.BudgetFromRecord(rec), nil
}

// Update replaces the title, description, amount, and category of a budget. The
// owner may always do this; anyone else needs EditBudget. Approval and ownership
// are left unchanged.
func (s *Service) Update(ctx context.Context, b record.Budget) (record.Budget, error) {
	if b.ID == "" {
		return record.Budget{}, fmt.Errorf("%w: id is required", record.ErrInvalidBudget)
	}
	if err := b.Validate(); err != nil {
		return record.Budget{}, err
	}
	if !s.session.Can(access.EditBudget) {
		current, err := s.Get(ctx, b.ID)
		if err != nil {
			return record.Budget{}, err
		}
		if !s.session.IsActor(current.UserID) {
			return record.Budget{}, &access.PermissionError{Role: s.session.Role, Permission: access.EditBudget}
		}
	}

	var description, category any
	if b.Description != "" {
		description = b.Description
	}
	if b.Category != "" {
		category = b.Category
	}
	return s.patch(ctx, "update", b.ID, record.Record{
		record.BudgetTitle:       b.Title,
		record.BudgetDescription: description,
		record.BudgetAmount:      b.Amount,
		record.BudgetCategory:    category,
	})
}

// Approve marks a budget approved.
func (s *Service) Approve(ctx context.Context, id string) (record.Budget, error) {
	return s.setApproved(ctx, "approve", id, true)
}

// Revoke withdraws a budget's approval.
func (s *Service) Revoke(ctx context.Context, id string) (record.Budget, error) {
	return s.setApproved(ctx, "revoke", id, false)
}

func (s *Service) setApproved(ctx context.Context, operation, id string, approved bool) (record.Budget, error) {
	if err := s.session.Require(access.ApproveBudget); err != nil {
		return record.Budget{}, err
	}
	updated, err := s.patch(ctx, operation, id, record.Record{record.BudgetApproved: approved})
	if err != nil {
		return record.Budget{}, err
	}
	s.logger(ctx, operation).Info().
		Ctx(ctx).
		Str("budget_id", id).
		Bool("approved", approved).
		Msg("budget approval changed")
	return updated, nil
}

// Delete removes a budget.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.session.Require(access.DeleteBudget); err != nil {
		return err
	}
	if err := s.store.Delete(ctx, store.CollectionBudgets, id); err != nil {
		return fmt.Errorf("deleting budget %s: %w", id, err)
	}
	s.logger(ctx, "delete").Info().Ctx(ctx).Str("budget_id", id).Msg("budget deleted")
	return nil
}

func (s *Service) patch(ctx context.Context, operation, id string, patch record.Record) (record.Budget, error) {
	updated, err := s.store.Update(ctx, store.CollectionBudgets, id, patch)
	if err != nil {
		return record.Budget{}, fmt.Errorf("updating budget %s: %w", id, err)
	}
	s.logger(ctx, operation).Debug().Ctx(ctx).Str("budget_id", id).Msg("budget updated")
	return record.BudgetFromRecord(updated), nil
}

// AllFetcher lists every budget, newest first.
func (s *Service) AllFetcher() *store.Fetcher {
	return s.fetcher()
}

// ForUserFetcher lists the budgets owned by userID, newest first.
func (s *Service) ForUserFetcher(userID string) *store.Fetcher {
	return s.fetcher(store.Eq(record.BudgetUserID, userID))
}

func (s *Service) fetcher(where ...store.Filter) *store.Fetcher {
	return store.NewFetcher(s.store, store.Query{
		Collection: store.CollectionBudgets,
		Where:      where,
		OrderBy:    store.OrderCreatedAt,
		Descending: true,
	}, s.forceClientSort)
}
