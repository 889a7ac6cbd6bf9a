package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"ciit-backend/internal/domain"
	"ciit-backend/internal/repository"
)

// Sessions is a file-backed session store: one pretty-printed JSON file per
// session, named after the session id. Put has upsert semantics with no
// version check; the last write observed wins.
type Sessions struct {
	dir    string
	logger *zap.Logger
}

var _ repository.SessionRepository = (*Sessions)(nil)

// NewSessions creates the store, ensuring the sessions directory exists.
func NewSessions(dir string, logger *zap.Logger) (*Sessions, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create sessions directory: %w", err)
	}
	return &Sessions{dir: dir, logger: logger}, nil
}

// List returns every stored session sorted by start time descending. Files
// that fail to parse are logged and skipped. Ties keep directory
// enumeration order, which is stable across calls.
func (s *Sessions) List(ctx context.Context) ([]domain.Session, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read sessions directory: %w", err)
	}

	sessions := make([]domain.Session, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, entry.Name()))
		if err != nil {
			s.logger.Error("Failed to read session file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		var session domain.Session
		if err := json.Unmarshal(data, &session); err != nil {
			s.logger.Error("Failed to parse session file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		sessions = append(sessions, session)
	}

	sort.SliceStable(sessions, func(i, j int) bool {
		return parseStartTime(sessions[i].StartTime).After(parseStartTime(sessions[j].StartTime))
	})
	return sessions, nil
}

// parseStartTime interprets a session start time for ordering. Unparsable
// values sort last rather than failing the whole listing.
func parseStartTime(value string) time.Time {
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Get reads one session by id.
func (s *Sessions) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := os.ReadFile(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, repository.NewNotFound("session", id)
		}
		return nil, fmt.Errorf("failed to read session '%s': %w", id, err)
	}
	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse session '%s': %w", id, err)
	}
	return &session, nil
}

// Put unconditionally overwrites the session file, creating it when absent.
func (s *Sessions) Put(ctx context.Context, session *domain.Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session '%s': %w", session.ID, err)
	}
	if err := writeFileAtomic(s.path(session.ID), data); err != nil {
		return fmt.Errorf("failed to write session '%s': %w", session.ID, err)
	}
	return nil
}

// Delete removes the session file, reporting not-found when it is absent.
func (s *Sessions) Delete(ctx context.Context, id string) error {
	if err := os.Remove(s.path(id)); err != nil {
		if os.IsNotExist(err) {
			return repository.NewNotFound("session", id)
		}
		return fmt.Errorf("failed to delete session '%s': %w", id, err)
	}
	return nil
}

// Exists reports whether a session file is present for the id.
func (s *Sessions) Exists(ctx context.Context, id string) (bool, error) {
	_, err := os.Stat(s.path(id))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat session '%s': %w", id, err)
	}
	return true, nil
}

func (s *Sessions) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}
