package interview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ciit-backend/internal/domain"
	"ciit-backend/internal/repository/filestore"
)

// fakeWriter records remote-tier calls and can be told to fail saves.
type fakeWriter struct {
	mu           sync.Mutex
	created      []domain.Session
	saved        []domain.Session
	saveAttempts int
	failSaves    bool
}

func (w *fakeWriter) Create(ctx context.Context, session domain.Session) (*domain.Session, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.created = append(w.created, session)
	stored := session
	return &stored, nil
}

func (w *fakeWriter) Save(ctx context.Context, session domain.Session) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.saveAttempts++
	if w.failSaves {
		return errors.New("store unavailable")
	}
	w.saved = append(w.saved, session)
	return nil
}

func (w *fakeWriter) attempts() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.saveAttempts
}

func (w *fakeWriter) saveCount() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.saved)
}

func newTestManager(t *testing.T) (*StateManager, *fakeWriter, *filestore.Snapshots) {
	t.Helper()
	cache, err := filestore.NewSnapshots(t.TempDir())
	require.NoError(t, err)
	writer := &fakeWriter{}
	manager := NewStateManager(writer, cache, zap.NewNop(), time.Minute)
	manager.now = func() time.Time { return time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC) }
	return manager, writer, cache
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func TestStateManager_CreateAdoptsStoredSessionAndMirrors(t *testing.T) {
	// Arrange
	manager, writer, cache := newTestManager(t)

	// Act
	created, err := manager.Create(context.Background(), domain.Session{
		ParticipantID:   "p-1",
		ParticipantRole: "investor",
		ConsentGiven:    true,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "session-1709287200000", created.ID)
	assert.NotNil(t, created.ConceptFeedback)
	assert.NotNil(t, created.NewIdeas)
	require.Len(t, writer.created, 1)

	current := manager.Current()
	require.NotNil(t, current)
	assert.Equal(t, created.ID, current.ID)

	data, err := cache.Load(SnapshotKey)
	require.NoError(t, err)
	assert.NotNil(t, data)
}

func TestStateManager_UpdateMergesOnlySetFields(t *testing.T) {
	// Arrange
	manager, _, _ := newTestManager(t)
	_, err := manager.Create(context.Background(), domain.Session{ParticipantID: "p-1"})
	require.NoError(t, err)

	// Act
	manager.Update(SessionPatch{
		Notes:          strPtr("prefers early-stage funds"),
		SelectedTopics: []string{"solar"},
	})

	// Assert
	current := manager.Current()
	assert.Equal(t, "prefers early-stage funds", current.Notes)
	assert.Equal(t, []string{"solar"}, current.SelectedTopics)
	assert.Equal(t, "p-1", current.ParticipantID)
	assert.True(t, current.ConsentGiven == false)
}

func TestStateManager_UpdateWithoutSessionIsNoOp(t *testing.T) {
	manager, _, cache := newTestManager(t)

	manager.Update(SessionPatch{Notes: strPtr("lost")})

	assert.Nil(t, manager.Current())
	data, err := cache.Load(SnapshotKey)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestStateManager_SetConceptFeedbackOverwritesEntry(t *testing.T) {
	// Arrange
	manager, _, _ := newTestManager(t)
	_, err := manager.Create(context.Background(), domain.Session{})
	require.NoError(t, err)

	// Act: second save fully replaces the first
	manager.SetConceptFeedback("acme-fund", domain.ConceptFeedback{Rating: 2, Notes: "meh"})
	manager.SetConceptFeedback("acme-fund", domain.ConceptFeedback{Rating: 5, Modifications: "longer horizon"})

	// Assert
	current := manager.Current()
	require.Len(t, current.ConceptFeedback, 1)
	fb := current.ConceptFeedback["acme-fund"]
	assert.Equal(t, 5, fb.Rating)
	assert.Empty(t, fb.Notes)
	assert.Equal(t, "longer horizon", fb.Modifications)
	assert.NotEmpty(t, fb.Timestamp)
}

func TestStateManager_AddIdeaAppends(t *testing.T) {
	manager, _, _ := newTestManager(t)
	_, err := manager.Create(context.Background(), domain.Session{})
	require.NoError(t, err)

	first := manager.AddIdea("community solar", "shared rooftop panels", "")
	second := manager.AddIdea("repair fund", "finance device repair", "acme-fund")

	require.NotNil(t, first)
	require.NotNil(t, second)
	current := manager.Current()
	require.Len(t, current.NewIdeas, 2)
	assert.Equal(t, "community solar", current.NewIdeas[0].Title)
	assert.Equal(t, "acme-fund", current.NewIdeas[1].RelatedConceptID)
	assert.NotEmpty(t, current.NewIdeas[0].ID)
}

func TestStateManager_EndIsIdempotent(t *testing.T) {
	// Arrange
	manager, writer, cache := newTestManager(t)
	_, err := manager.Create(context.Background(), domain.Session{})
	require.NoError(t, err)

	// Act: end once, then again with a later clock
	manager.End(context.Background())
	firstEnd := manager.Current().EndTime
	manager.now = func() time.Time { return time.Date(2024, 3, 1, 11, 0, 0, 0, time.UTC) }
	manager.End(context.Background())

	// Assert: the end time never reverts or moves
	assert.NotEmpty(t, firstEnd)
	assert.Equal(t, firstEnd, manager.Current().EndTime)
	assert.Equal(t, 2, writer.saveCount())

	data, err := cache.Load(SnapshotKey)
	require.NoError(t, err)
	assert.Nil(t, data, "snapshot cache should be cleared after End")
}

func TestStateManager_EndWithFailingStoreStillClearsCache(t *testing.T) {
	manager, writer, cache := newTestManager(t)
	_, err := manager.Create(context.Background(), domain.Session{})
	require.NoError(t, err)
	writer.failSaves = true

	manager.End(context.Background())

	assert.NotEmpty(t, manager.Current().EndTime)
	data, loadErr := cache.Load(SnapshotKey)
	require.NoError(t, loadErr)
	assert.Nil(t, data)
}

func TestStateManager_ClearDiscardsSessionAndCache(t *testing.T) {
	manager, _, cache := newTestManager(t)
	_, err := manager.Create(context.Background(), domain.Session{})
	require.NoError(t, err)

	manager.Clear()

	assert.Nil(t, manager.Current())
	data, loadErr := cache.Load(SnapshotKey)
	require.NoError(t, loadErr)
	assert.Nil(t, data)
}

func TestStateManager_RestoreFromSnapshot(t *testing.T) {
	// Arrange: one manager crashes after a mutation
	manager, _, cache := newTestManager(t)
	_, err := manager.Create(context.Background(), domain.Session{ParticipantID: "p-9"})
	require.NoError(t, err)
	manager.Update(SessionPatch{Notes: strPtr("halfway through")})

	// Act: a fresh manager over the same cache restores the session
	writer := &fakeWriter{}
	revived := NewStateManager(writer, cache, zap.NewNop(), time.Minute)
	revived.Restore()

	// Assert
	current := revived.Current()
	require.NotNil(t, current)
	assert.Equal(t, "p-9", current.ParticipantID)
	assert.Equal(t, "halfway through", current.Notes)

	// The restored state counts as unsynced, so the next pass pushes it.
	revived.SyncNow(context.Background())
	assert.Equal(t, 1, writer.saveCount())
}

func TestStateManager_RestoreIgnoresCorruptSnapshot(t *testing.T) {
	manager, _, cache := newTestManager(t)
	require.NoError(t, cache.Store(SnapshotKey, []byte("{not json")))

	manager.Restore()

	assert.Nil(t, manager.Current())
}

func TestStateManager_SyncNowSkipsWhenUnchanged(t *testing.T) {
	// Arrange: Create marks the session as already synchronized
	manager, writer, _ := newTestManager(t)
	_, err := manager.Create(context.Background(), domain.Session{})
	require.NoError(t, err)

	// Act
	manager.SyncNow(context.Background())

	// Assert
	assert.Equal(t, 0, writer.saveCount())
}

func TestStateManager_SyncNowPushesAfterMutation(t *testing.T) {
	manager, writer, _ := newTestManager(t)
	_, err := manager.Create(context.Background(), domain.Session{})
	require.NoError(t, err)

	manager.Update(SessionPatch{Notes: strPtr("changed")})
	manager.SyncNow(context.Background())
	// A second pass with no further changes writes nothing.
	manager.SyncNow(context.Background())

	assert.Equal(t, 1, writer.saveCount())
	require.Len(t, writer.saved, 1)
	assert.Equal(t, "changed", writer.saved[0].Notes)
}

func TestStateManager_BreakerStopsHammeringDeadStore(t *testing.T) {
	// Arrange
	manager, writer, _ := newTestManager(t)
	_, err := manager.Create(context.Background(), domain.Session{})
	require.NoError(t, err)
	manager.Update(SessionPatch{Notes: strPtr("unsaved")})
	writer.failSaves = true

	// Act: three consecutive failures trip the breaker; later passes
	// fail fast without reaching the writer.
	for i := 0; i < 5; i++ {
		manager.SyncNow(context.Background())
	}

	// Assert: only the first three attempts reached the writer, and the
	// session is still held locally.
	assert.Equal(t, 3, writer.attempts())
	assert.Equal(t, "unsaved", manager.Current().Notes)
}

func TestStateManager_OverStoreWriterPersistsToSessionStore(t *testing.T) {
	// Arrange: manager wired straight onto a file-backed session service
	svc := newTestInterviewService(t)
	cache, err := filestore.NewSnapshots(t.TempDir())
	require.NoError(t, err)
	manager := NewStateManager(NewStoreWriter(svc), cache, zap.NewNop(), time.Minute)
	ctx := context.Background()

	// Act
	created, err := manager.Create(ctx, domain.Session{ParticipantID: "p-2"})
	require.NoError(t, err)
	manager.Update(SessionPatch{Notes: strPtr("from the field")})
	manager.SyncNow(ctx)

	// Assert
	stored, err := svc.GetSession(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "from the field", stored.Notes)
	assert.Equal(t, "p-2", stored.ParticipantID)
}

func TestStateManager_InvestmentStatusPatchFlows(t *testing.T) {
	manager, _, _ := newTestManager(t)
	_, err := manager.Create(context.Background(), domain.Session{})
	require.NoError(t, err)

	manager.Update(SessionPatch{
		HasInvestedInClimate: boolPtr(false),
		SelectedBarriers:     []string{"risk"},
		CustomBarriers:       []string{"no time"},
	})

	current := manager.Current()
	require.NotNil(t, current.HasInvestedInClimate)
	assert.False(t, *current.HasInvestedInClimate)
	assert.Equal(t, []string{"risk"}, current.SelectedBarriers)
	assert.Equal(t, []string{"no time"}, current.CustomBarriers)
}
