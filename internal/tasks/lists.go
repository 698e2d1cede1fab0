package tasks

import (
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/store"
)

// Fetchers for the task list scopes. Every scope is newest first.

func (s *Service) fetcher(where ...store.Filter) *store.Fetcher {
	return store.NewFetcher(s.store, store.Query{
		Collection: store.CollectionTasks,
		Where:      where,
		OrderBy:    store.OrderCreatedAt,
		Descending: true,
	}, s.forceClientSort)
}

// AllFetcher lists every task.
func (s *Service) AllFetcher() *store.Fetcher {
	return s.fetcher()
}

// AssignedToFetcher lists tasks assigned to userID.
func (s *Service) AssignedToFetcher(userID string) *store.Fetcher {
	return s.fetcher(store.Eq(record.TaskAssignedToUserID, userID))
}

// MineFetcher lists tasks assigned to the session's actor.
func (s *Service) MineFetcher() *store.Fetcher {
	return s.AssignedToFetcher(s.session.ActorID)
}

// CreatedByFetcher lists tasks assigned by userID.
func (s *Service) CreatedByFetcher(userID string) *store.Fetcher {
	return s.fetcher(store.Eq(record.TaskAssignerUserID, userID))
}

// StatusFetcher lists tasks with the given status.
func (s *Service) StatusFetcher(status string) *store.Fetcher {
	return s.fetcher(store.Eq(record.TaskStatus, status))
}

// PriorityFetcher lists tasks with the given priority.
func (s *Service) PriorityFetcher(priority string) *store.Fetcher {
	return s.fetcher(store.Eq(record.TaskPriority, priority))
}

// CriteriaFetcher lists tasks matching the equality parts of c. Search is not a
// store filter; apply FilterAndSort to the loaded items for it.
func (s *Service) CriteriaFetcher(c FilterCriteria) *store.Fetcher {
	return s.fetcher(c.StoreFilters()...)
}
