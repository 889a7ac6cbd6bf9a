package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ciit-backend/internal/domain"
	"ciit-backend/internal/observability"
	"ciit-backend/internal/repository/filestore"
	"ciit-backend/internal/service/catalog"
	"ciit-backend/internal/service/interview"
)

func newTestServer(t *testing.T) http.Handler {
	t.Helper()
	dataDir := t.TempDir()
	conceptsDir := filepath.Join(dataDir, "concepts")
	require.NoError(t, os.MkdirAll(conceptsDir, 0755))

	require.NoError(t, os.WriteFile(filepath.Join(conceptsDir, "acme-fund.yaml"), []byte(`
id: acme-fund
name: Acme Fund
tagline: Pooled climate investments
category: fund
layer: finance
image: ""
topics:
  - solar
details: []
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "topics.yaml"), []byte(`
topics:
  - id: solar
    name: Solar
    description: Solar energy
    color: "#fdb813"
`), 0644))

	logger := zap.NewNop()
	catalogStore, err := filestore.NewCatalog(conceptsDir, filepath.Join(dataDir, "topics.yaml"), filepath.Join(dataDir, "barriers.yaml"), logger)
	require.NoError(t, err)
	sessionStore, err := filestore.NewSessions(filepath.Join(dataDir, "sessions"), logger)
	require.NoError(t, err)
	imageStore, err := filestore.NewImages(filepath.Join(dataDir, "images"))
	require.NoError(t, err)

	catalogSvc := catalog.NewService(catalogStore, imageStore, logger)
	sessionSvc := interview.NewService(sessionStore, logger)
	collector := observability.NewCollector("ciit_test")

	return NewRouter(catalogSvc, sessionSvc, collector, logger).Setup()
}

func doJSON(t *testing.T, srv http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestListTopics(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/topics", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var topics []domain.Topic
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &topics))
	require.Len(t, topics, 1)
	assert.Equal(t, "solar", topics[0].ID)
}

func TestCreateSessionDefaultsIDAndReturns201(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/sessions", map[string]interface{}{
		"participantId": "p-1",
		"consentGiven":  true,
	})

	require.Equal(t, http.StatusCreated, rec.Code)
	var created domain.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.NotEmpty(t, created.StartTime)

	got := doJSON(t, srv, http.MethodGet, "/api/sessions/"+created.ID, nil)
	assert.Equal(t, http.StatusOK, got.Code)
}

func TestPutSessionForcesIDFromPath(t *testing.T) {
	// Arrange
	srv := newTestServer(t)

	// Act: the payload lies about its id
	rec := doJSON(t, srv, http.MethodPut, "/api/sessions/session-path", map[string]interface{}{
		"id":        "session-payload",
		"startTime": "2024-03-01T10:00:00Z",
		"notes":     "hello",
	})

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var stored domain.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &stored))
	assert.Equal(t, "session-path", stored.ID)

	missing := doJSON(t, srv, http.MethodGet, "/api/sessions/session-payload", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestGetMissingSessionReturns404(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodGet, "/api/sessions/session-ghost", nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "error")
}

func TestDeleteSession(t *testing.T) {
	srv := newTestServer(t)
	created := doJSON(t, srv, http.MethodPost, "/api/sessions", map[string]interface{}{"id": "session-del"})
	require.Equal(t, http.StatusCreated, created.Code)

	rec := doJSON(t, srv, http.MethodDelete, "/api/sessions/session-del", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"success":true}`, rec.Body.String())

	again := doJSON(t, srv, http.MethodDelete, "/api/sessions/session-del", nil)
	assert.Equal(t, http.StatusNotFound, again.Code)
}

func TestListSessionsSortedDescending(t *testing.T) {
	srv := newTestServer(t)
	for _, s := range []map[string]interface{}{
		{"id": "session-a", "startTime": "2024-01-01T00:00:00Z"},
		{"id": "session-b", "startTime": "2024-02-01T00:00:00Z"},
	} {
		rec := doJSON(t, srv, http.MethodPost, "/api/sessions", s)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := doJSON(t, srv, http.MethodGet, "/api/sessions", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	var sessions []domain.Session
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sessions))
	require.Len(t, sessions, 2)
	assert.Equal(t, "session-b", sessions[0].ID)
}

func TestUpdateConceptTopicsEnvelope(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPatch, "/api/concepts/acme-fund/topics", map[string]interface{}{
		"topics": []string{"wind"},
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool           `json:"success"`
		Concept domain.Concept `json:"concept"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, []string{"wind"}, resp.Concept.Topics)
}

func TestUpdateConceptTopicsMissingConceptReturns404(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPatch, "/api/concepts/ghost/topics", map[string]interface{}{
		"topics": []string{},
	})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateConceptRequiresNameOrID(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/concepts", map[string]interface{}{
		"tagline": "nameless",
	})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateConceptDerivesID(t *testing.T) {
	srv := newTestServer(t)

	rec := doJSON(t, srv, http.MethodPost, "/api/concepts", map[string]interface{}{
		"name":    "Blue Carbon Credits",
		"tagline": "Coastal ecosystems",
	})

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Concept domain.Concept `json:"concept"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "blue-carbon-credits", resp.Concept.ID)
}

func uploadImage(t *testing.T, srv http.Handler, conceptID, filename, contentType string, payload []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	header.Set("Content-Type", contentType)
	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(payload)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/concepts/"+conceptID+"/image", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestUploadConceptImageStoresAndUpdatesConcept(t *testing.T) {
	// Arrange
	srv := newTestServer(t)
	payload := bytes.Repeat([]byte{0x01}, 1<<20)

	// Act
	rec := uploadImage(t, srv, "acme-fund", "photo.png", "image/png", payload)

	// Assert
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Success bool           `json:"success"`
		Image   string         `json:"image"`
		Concept domain.Concept `json:"concept"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "acme-fund.png", resp.Image)
	assert.Equal(t, "acme-fund.png", resp.Concept.Image)
}

func TestUploadConceptImageOversizeReturns400(t *testing.T) {
	srv := newTestServer(t)
	payload := bytes.Repeat([]byte{0xff}, 6<<20)

	rec := uploadImage(t, srv, "acme-fund", "big.jpg", "image/jpeg", payload)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadConceptImageBadTypeReturns400(t *testing.T) {
	srv := newTestServer(t)

	rec := uploadImage(t, srv, "acme-fund", "notes.txt", "text/plain", []byte("hello"))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadConceptImageMissingConceptReturns404(t *testing.T) {
	srv := newTestServer(t)

	rec := uploadImage(t, srv, "ghost", "photo.png", "image/png", []byte{0x89})

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadConceptImageMissingFileReturns400(t *testing.T) {
	srv := newTestServer(t)
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.WriteField("unrelated", "value"))
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/concepts/acme-fund/image", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "No image file provided")
}

func TestSessionSummaryEndpoint(t *testing.T) {
	// Arrange
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPut, "/api/sessions/session-sum", map[string]interface{}{
		"startTime":      "2024-03-01T10:00:00Z",
		"selectedTopics": []string{"solar"},
		"customTopics":   []string{"tidal"},
		"conceptFeedback": map[string]interface{}{
			"acme-fund": map[string]interface{}{"rating": 5, "notes": "great"},
			"retired":   map[string]interface{}{"rating": 1},
		},
		"newIdeas": []interface{}{},
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// Act
	summaryRec := doJSON(t, srv, http.MethodGet, "/api/sessions/session-sum/summary", nil)

	// Assert
	require.Equal(t, http.StatusOK, summaryRec.Code)
	var summary interview.Summary
	require.NoError(t, json.Unmarshal(summaryRec.Body.Bytes(), &summary))
	assert.Equal(t, 2, summary.ConceptsReviewed)
	assert.Equal(t, 2, summary.TopicsSelected)
	require.Len(t, summary.ReviewedConcepts, 1)
	assert.Equal(t, "acme-fund", summary.ReviewedConcepts[0].Concept.ID)
}

func TestExportSessionDownload(t *testing.T) {
	srv := newTestServer(t)
	rec := doJSON(t, srv, http.MethodPut, "/api/sessions/session-exp", map[string]interface{}{
		"startTime": "2024-03-01T10:00:00Z",
		"notes":     "exported",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	exportRec := doJSON(t, srv, http.MethodGet, "/api/sessions/session-exp/export", nil)

	require.Equal(t, http.StatusOK, exportRec.Code)
	assert.Contains(t, exportRec.Header().Get("Content-Disposition"), "session-session-exp.json")
	var decoded domain.Session
	require.NoError(t, json.Unmarshal(exportRec.Body.Bytes(), &decoded))
	assert.Equal(t, "exported", decoded.Notes)
}
