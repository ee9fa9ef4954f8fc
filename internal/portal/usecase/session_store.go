package usecase

import (
	"context"
	"errors"

	"afi-portal/internal/portal/domain/model"
	"afi-portal/internal/portal/domain/repository"
	"afi-portal/internal/shared/logger"

	"go.uber.org/zap"
)

// SessionStoreInterface persists at most one Session per client.
type SessionStoreInterface interface {
	Save(ctx context.Context, clientID string, s *model.Session) error
	// Load re-reads storage on every call. Absent, unreadable and
	// unreachable records all come back as (nil, false).
	Load(ctx context.Context, clientID string) (*model.Session, bool)
	Clear(ctx context.Context, clientID string) error
}

// SessionStore keeps the Session record under model.SessionItemKey.
type SessionStore struct {
	records *RecordStore
	logger  logger.Logger
}

var _ SessionStoreInterface = (*SessionStore)(nil)

func NewSessionStore(records *RecordStore, log logger.Logger) *SessionStore {
	return &SessionStore{records: records, logger: log.WithComponent("session_store")}
}

// Save overwrites the stored record. The session is not validated.
func (s *SessionStore) Save(ctx context.Context, clientID string, session *model.Session) error {
	return s.records.Put(ctx, clientID, model.SessionItemKey, session)
}

func (s *SessionStore) Load(ctx context.Context, clientID string) (*model.Session, bool) {
	var session model.Session
	err := s.records.Get(ctx, clientID, model.SessionItemKey, &session)
	switch {
	case err == nil:
		return &session, true
	case errors.Is(err, repository.ErrItemNotFound):
		return nil, false
	case errors.Is(err, errUnreadable):
		s.logger.Warn("Discarding unreadable session record",
			zap.String("client_id", clientID),
			zap.Error(err))
		return nil, false
	default:
		s.logger.Error("Session storage unavailable, treating session as absent",
			zap.String("client_id", clientID),
			zap.Error(err))
		return nil, false
	}
}

// Clear removes the record. Clearing an absent record succeeds.
func (s *SessionStore) Clear(ctx context.Context, clientID string) error {
	return s.records.Delete(ctx, clientID, model.SessionItemKey)
}
