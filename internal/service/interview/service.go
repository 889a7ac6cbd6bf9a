// Package interview provides business logic for interview sessions: CRUD
// over the durable store, the client-held session state manager, and the
// read-side feedback summary.
package interview

import (
	"context"
	"time"

	"go.uber.org/zap"

	"ciit-backend/internal/domain"
	"ciit-backend/internal/repository"
	appErrors "ciit-backend/pkg/errors"
)

// Service defines session store operations.
type Service interface {
	// ListSessions returns all sessions sorted by start time descending.
	ListSessions(ctx context.Context) ([]domain.Session, error)

	// GetSession retrieves one session by id.
	GetSession(ctx context.Context, id string) (*domain.Session, error)

	// CreateSession persists a new session, defaulting the id and start
	// time when absent, and returns the stored value verbatim.
	CreateSession(ctx context.Context, session domain.Session) (*domain.Session, error)

	// PutSession unconditionally overwrites the session at id. The stored
	// id is forced to the path parameter; a write that creates a record
	// which did not previously exist is logged as a warning.
	PutSession(ctx context.Context, id string, session domain.Session) (*domain.Session, error)

	// DeleteSession removes one session by id.
	DeleteSession(ctx context.Context, id string) error
}

type service struct {
	repo   repository.SessionRepository
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates the interview session service.
func NewService(repo repository.SessionRepository, logger *zap.Logger) Service {
	return &service{repo: repo, logger: logger, now: time.Now}
}

func (s *service) ListSessions(ctx context.Context) ([]domain.Session, error) {
	sessions, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.NewInternal("failed to list sessions", err)
	}
	return sessions, nil
}

func (s *service) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	session, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return session, nil
}

func (s *service) CreateSession(ctx context.Context, session domain.Session) (*domain.Session, error) {
	now := s.now()
	if session.ID == "" {
		session.ID = domain.NewSessionID(now)
	}
	if session.StartTime == "" {
		session.StartTime = domain.Timestamp(now)
	}

	if err := s.repo.Put(ctx, &session); err != nil {
		return nil, appErrors.NewInternal("failed to create session", err)
	}
	return &session, nil
}

func (s *service) PutSession(ctx context.Context, id string, session domain.Session) (*domain.Session, error) {
	session.ID = id

	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return nil, appErrors.NewInternal("failed to check session existence", err)
	}
	if !exists {
		// Upsert creating a fresh record usually means the client lost
		// track of its session; keep the write but make it visible.
		s.logger.Warn("Session overwrite created a new record", zap.String("sessionID", id))
	}

	if err := s.repo.Put(ctx, &session); err != nil {
		return nil, appErrors.NewInternal("failed to update session", err)
	}
	return &session, nil
}

func (s *service) DeleteSession(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapRepoError(err)
	}
	return nil
}

func mapRepoError(err error) error {
	if repository.IsNotFound(err) {
		return appErrors.NewNotFound(err.Error())
	}
	return appErrors.NewInternal("session storage failure", err)
}
