package interview

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"ciit-backend/internal/domain"
	"ciit-backend/internal/repository"
)

// SnapshotKey is the well-known local cache key for the in-progress session.
const SnapshotKey = "ciit_current_session"

// DefaultAutosaveInterval matches the original client's 30-second server sync.
const DefaultAutosaveInterval = 30 * time.Second

// SessionWriter is the remote durability tier seen by the state manager:
// a create path and a full-overwrite save path.
type SessionWriter interface {
	Create(ctx context.Context, session domain.Session) (*domain.Session, error)
	Save(ctx context.Context, session domain.Session) error
}

// SessionPatch carries the shallow-mergeable session fields. Nil fields are
// left untouched by Update.
type SessionPatch struct {
	ParticipantID        *string
	ParticipantName      *string
	ParticipantRole      *string
	OrganizationType     *string
	ReferralSource       *string
	ConsentGiven         *bool
	HasInvestedInClimate *bool
	SelectedTopics       []string
	CustomTopics         []string
	SelectedBarriers     []string
	CustomBarriers       []string
	Notes                *string
}

// StateManager owns the single in-progress session on the client side and
// keeps it durable on two tiers: every mutation mirrors the full session to
// the local snapshot cache synchronously, and a periodic reconciliation
// loop pushes a full overwrite to the remote store whenever the serialized
// session has drifted from the last persisted value. There is no conflict
// detection between tiers or between concurrent managers; the last write
// observed wins.
type StateManager struct {
	writer   SessionWriter
	cache    repository.SnapshotCache
	logger   *zap.Logger
	interval time.Duration
	breaker  *gobreaker.CircuitBreaker
	now      func() time.Time

	mu        sync.Mutex
	session   *domain.Session
	lastSaved string
}

// NewStateManager creates a state manager. A non-positive interval falls
// back to DefaultAutosaveInterval.
func NewStateManager(writer SessionWriter, cache repository.SnapshotCache, logger *zap.Logger, interval time.Duration) *StateManager {
	if interval <= 0 {
		interval = DefaultAutosaveInterval
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "session-sync",
		Timeout: 2 * interval,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("Session sync breaker state changed",
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
	return &StateManager{
		writer:   writer,
		cache:    cache,
		logger:   logger,
		interval: interval,
		breaker:  breaker,
		now:      time.Now,
	}
}

// Restore loads a previously cached session from the local snapshot cache.
// An absent or unparsable snapshot leaves the manager with no active
// session. The remote marker is left empty so the next sync tick pushes
// the restored state through.
func (m *StateManager) Restore() {
	data, err := m.cache.Load(SnapshotKey)
	if err != nil {
		m.logger.Error("Failed to load cached session", zap.Error(err))
		return
	}
	if data == nil {
		return
	}

	var session domain.Session
	if err := json.Unmarshal(data, &session); err != nil {
		m.logger.Error("Failed to parse cached session", zap.Error(err))
		return
	}

	m.mu.Lock()
	m.session = &session
	m.lastSaved = ""
	m.mu.Unlock()

	m.logger.Info("Restored cached session", zap.String("sessionID", session.ID))
}

// Current returns a copy of the active session, or nil when none exists.
func (m *StateManager) Current() *domain.Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil
	}
	return m.session.Clone()
}

// Create builds a new session with a generated id, the current start time
// and empty collections, submits it to the remote store, and adopts the
// stored result as the current session and last-synchronized snapshot.
func (m *StateManager) Create(ctx context.Context, data domain.Session) (*domain.Session, error) {
	now := m.now()
	session := domain.Session{
		ID:                   domain.NewSessionID(now),
		ParticipantID:        data.ParticipantID,
		ParticipantName:      data.ParticipantName,
		ParticipantRole:      data.ParticipantRole,
		OrganizationType:     data.OrganizationType,
		ReferralSource:       data.ReferralSource,
		ConsentGiven:         data.ConsentGiven,
		StartTime:            domain.Timestamp(now),
		HasInvestedInClimate: data.HasInvestedInClimate,
		SelectedTopics:       []string{},
		CustomTopics:         []string{},
		ConceptFeedback:      map[string]domain.ConceptFeedback{},
		NewIdeas:             []domain.Idea{},
		Notes:                "",
	}

	created, err := m.writer.Create(ctx, session)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.session = created.Clone()
	m.lastSaved = serialize(created)
	m.mu.Unlock()

	m.mirror()
	return created.Clone(), nil
}

// Update shallow-merges the set patch fields into the current session.
// Without an active session it is a no-op.
func (m *StateManager) Update(patch SessionPatch) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return
	}
	if patch.ParticipantID != nil {
		m.session.ParticipantID = *patch.ParticipantID
	}
	if patch.ParticipantName != nil {
		m.session.ParticipantName = *patch.ParticipantName
	}
	if patch.ParticipantRole != nil {
		m.session.ParticipantRole = *patch.ParticipantRole
	}
	if patch.OrganizationType != nil {
		m.session.OrganizationType = *patch.OrganizationType
	}
	if patch.ReferralSource != nil {
		m.session.ReferralSource = *patch.ReferralSource
	}
	if patch.ConsentGiven != nil {
		m.session.ConsentGiven = *patch.ConsentGiven
	}
	if patch.HasInvestedInClimate != nil {
		v := *patch.HasInvestedInClimate
		m.session.HasInvestedInClimate = &v
	}
	if patch.SelectedTopics != nil {
		m.session.SelectedTopics = patch.SelectedTopics
	}
	if patch.CustomTopics != nil {
		m.session.CustomTopics = patch.CustomTopics
	}
	if patch.SelectedBarriers != nil {
		m.session.SelectedBarriers = patch.SelectedBarriers
	}
	if patch.CustomBarriers != nil {
		m.session.CustomBarriers = patch.CustomBarriers
	}
	if patch.Notes != nil {
		m.session.Notes = *patch.Notes
	}
	m.mu.Unlock()

	m.mirror()
}

// SetConceptFeedback inserts or overwrites the feedback entry for one
// concept. A missing timestamp is stamped with the current time.
func (m *StateManager) SetConceptFeedback(conceptID string, feedback domain.ConceptFeedback) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return
	}
	if feedback.Timestamp == "" {
		feedback.Timestamp = domain.Timestamp(m.now())
	}
	if m.session.ConceptFeedback == nil {
		m.session.ConceptFeedback = map[string]domain.ConceptFeedback{}
	}
	m.session.ConceptFeedback[conceptID] = feedback
	m.mu.Unlock()

	m.mirror()
}

// AddIdea appends a captured idea with a generated id and timestamp. Ideas
// are append-only; existing entries are never edited or removed.
func (m *StateManager) AddIdea(title, description, relatedConceptID string) *domain.Idea {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return nil
	}
	now := m.now()
	idea := domain.Idea{
		ID:               domain.NewIdeaID(now),
		Title:            title,
		Description:      description,
		RelatedConceptID: relatedConceptID,
		Timestamp:        domain.Timestamp(now),
	}
	m.session.NewIdeas = append(m.session.NewIdeas, idea)
	m.mu.Unlock()

	m.mirror()
	return &idea
}

// End stamps the end time (keeping an existing one, so a second call never
// reverts it), force-persists the session to the remote store, and clears
// the local cache. A failed remote save is logged; the session is still
// considered archived on this client, matching the original tool.
func (m *StateManager) End(ctx context.Context) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return
	}
	if m.session.EndTime == "" {
		m.session.EndTime = domain.Timestamp(m.now())
	}
	snapshot := m.session.Clone()
	m.mu.Unlock()

	if err := m.writer.Save(ctx, *snapshot); err != nil {
		m.logger.Error("Failed to persist ended session", zap.String("sessionID", snapshot.ID), zap.Error(err))
	} else {
		m.mu.Lock()
		m.lastSaved = serialize(snapshot)
		m.mu.Unlock()
	}

	if err := m.cache.Remove(SnapshotKey); err != nil {
		m.logger.Error("Failed to clear session snapshot", zap.Error(err))
	}
}

// Clear discards the current session and local cache without persisting.
func (m *StateManager) Clear() {
	m.mu.Lock()
	m.session = nil
	m.lastSaved = ""
	m.mu.Unlock()

	if err := m.cache.Remove(SnapshotKey); err != nil {
		m.logger.Error("Failed to clear session snapshot", zap.Error(err))
	}
}

// Run drives the periodic remote reconciliation until the context is
// cancelled. Each tick pushes a full overwrite only when the serialized
// session differs from the last value known to be persisted remotely.
func (m *StateManager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.SyncNow(ctx)
		}
	}
}

// SyncNow performs one reconciliation pass. Failures are logged and left
// for the next tick; the circuit breaker keeps a dead remote store from
// being hammered every interval while the local cache tier holds the data.
func (m *StateManager) SyncNow(ctx context.Context) {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return
	}
	current := serialize(m.session)
	if current == m.lastSaved {
		m.mu.Unlock()
		return
	}
	snapshot := m.session.Clone()
	m.mu.Unlock()

	_, err := m.breaker.Execute(func() (interface{}, error) {
		return nil, m.writer.Save(ctx, *snapshot)
	})
	if err != nil {
		m.logger.Error("Failed to sync session to store", zap.String("sessionID", snapshot.ID), zap.Error(err))
		return
	}

	m.mu.Lock()
	m.lastSaved = current
	m.mu.Unlock()
}

// mirror writes the full session to the local snapshot cache. This is the
// synchronous, best-effort durability tier: failures are logged, never
// surfaced to the caller.
func (m *StateManager) mirror() {
	m.mu.Lock()
	if m.session == nil {
		m.mu.Unlock()
		return
	}
	data, err := json.Marshal(m.session)
	m.mu.Unlock()
	if err != nil {
		m.logger.Error("Failed to serialize session snapshot", zap.Error(err))
		return
	}
	if err := m.cache.Store(SnapshotKey, data); err != nil {
		m.logger.Error("Failed to mirror session snapshot", zap.Error(err))
	}
}

func serialize(session *domain.Session) string {
	data, err := json.Marshal(session)
	if err != nil {
		return ""
	}
	return string(data)
}

// storeWriter adapts the session Service to the SessionWriter port so the
// state manager can run against the local store directly.
type storeWriter struct {
	svc Service
}

// NewStoreWriter wraps a session service as a SessionWriter.
func NewStoreWriter(svc Service) SessionWriter {
	return &storeWriter{svc: svc}
}

func (w *storeWriter) Create(ctx context.Context, session domain.Session) (*domain.Session, error) {
	return w.svc.CreateSession(ctx, session)
}

func (w *storeWriter) Save(ctx context.Context, session domain.Session) error {
	_, err := w.svc.PutSession(ctx, session.ID, session)
	return err
}
