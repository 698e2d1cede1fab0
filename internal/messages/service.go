// Package messages implements the team chat: posting, deleting, and the paged,
// newest-first history.
package messages

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/rshade/planfocus/internal/access"
	"github.com/rshade/planfocus/internal/logging"
	"github.com/rshade/planfocus/internal/record"
	"github.com/rshade/planfocus/internal/store"
)

// Service performs chat operations on behalf of one session.
type Service struct {
	store           store.Store
	session         access.Session
	forceClientSort bool
}

// NewService creates a Service acting as session.
func NewService(s store.Store, session access.Session) *Service {
	return &Service{store: s, session: session}
}

// WithClientSort forces the history fetcher to sort in memory.
func (s *Service) WithClientSort(force bool) *Service {
	s.forceClientSort = force
	return s
}

func (s *Service) logger(ctx context.Context, operation string) *zerolog.Logger {
	l := logging.FromContext(ctx).With().
		Str("component", "messages").
		Str("operation", operation).
		Str("actor_id", s.session.ActorID).
		Logger()
	return &l
}

// Post stores a message from the session's actor. The store stamps the timestamp.
func (s *Service) Post(ctx context.Context, content string, attachment *record.Attachment) (record.Message, error) {
	if err := s.session.Require(access.SendMessage); err != nil {
		return record.Message{}, err
	}

	m := record.Message{
		Content:    strings.TrimSpace(content),
		SenderID:   s.session.ActorID,
		SenderName: s.session.ActorName,
		Attachment: attachment,
	}
	if err := m.Validate(); err != nil {
		return record.Message{}, err
	}

	created, err := s.store.Create(ctx, store.CollectionMessages, m.ToRecord())
	if err != nil {
		return record.Message{}, fmt.Errorf("posting message: %w", err)
	}

	s.logger(ctx, "post").Info().
		Ctx(ctx).
		Str("message_id", created.ID()).
		Bool("attachment", attachment != nil).
		Msg("message posted")
	return record.MessageFromRecord(created), nil
}

// Get loads one message.
func (s *Service) Get(ctx context.Context, id string) (record.Message, error) {
	rec, err := s.store.Get(ctx, store.CollectionMessages, id)
	if err != nil {
		return record.Message{}, fmt.Errorf("loading message %s: %w", id, err)
	}
	return record.MessageFromRecord(rec), nil
}

// Delete removes a message. Senders may delete their own; anyone else needs
// DeleteMessage.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !s.session.Can(access.DeleteMessage) {
		current, err := s.Get(ctx, id)
		if err != nil {
			return err
		}
		if !s.session.IsActor(current.SenderID) {
			return &access.PermissionError{Role: s.session.Role, Permission: access.DeleteMessage}
		}
	}
	if err := s.store.Delete(ctx, store.CollectionMessages, id); err != nil {
		return fmt.Errorf("deleting message %s: %w", id, err)
	}
	s.logger(ctx, "delete").Info().Ctx(ctx).Str("message_id", id).Msg("message deleted")
	return nil
}

// HistoryFetcher pages through every message, newest first.
func (s *Service) HistoryFetcher() *store.Fetcher {
	return s.fetcher()
}

// FromSenderFetcher pages through the messages posted by userID, newest first.
func (s *Service) FromSenderFetcher(userID string) *store.Fetcher {
	return s.fetcher(store.Eq(record.MessageSenderID, userID))
}

func (s *Service) fetcher(where ...store.Filter) *store.Fetcher {
	return store.NewFetcher(s.store, store.Query{
		Collection: store.CollectionMessages,
		Where:      where,
		OrderBy:    store.OrderCreatedAt,
		Descending: true,
	}, s.forceClientSort)
}
