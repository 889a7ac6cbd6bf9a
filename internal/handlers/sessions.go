package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ciit-backend/internal/domain"
	"ciit-backend/internal/observability"
	"ciit-backend/internal/service/catalog"
	"ciit-backend/internal/service/interview"
	"ciit-backend/pkg/api"
)

// SessionHandler handles session-related HTTP requests.
type SessionHandler struct {
	svc       interview.Service
	catalog   catalog.Service
	collector *observability.Collector
	logger    *zap.Logger
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(svc interview.Service, catalogSvc catalog.Service, collector *observability.Collector, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{svc: svc, catalog: catalogSvc, collector: collector, logger: logger}
}

// ListSessions handles GET /api/sessions
func (h *SessionHandler) ListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.svc.ListSessions(r.Context())
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, sessions)
}

// GetSession handles GET /api/sessions/{sessionID}
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.svc.GetSession(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, session)
}

// CreateSession handles POST /api/sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var session domain.Session
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	created, err := h.svc.CreateSession(r.Context(), session)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	h.collector.SessionsCreated.Inc()
	api.Success(w, http.StatusCreated, created)
}

// UpdateSession handles PUT /api/sessions/{sessionID}
func (h *SessionHandler) UpdateSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	var session domain.Session
	if err := json.NewDecoder(r.Body).Decode(&session); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	stored, err := h.svc.PutSession(r.Context(), sessionID, session)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	h.collector.SessionAutosaves.Inc()
	api.Success(w, http.StatusOK, stored)
}

// DeleteSession handles DELETE /api/sessions/{sessionID}
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	if err := h.svc.DeleteSession(r.Context(), sessionID); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]bool{"success": true})
}

// GetSessionSummary handles GET /api/sessions/{sessionID}/summary
func (h *SessionHandler) GetSessionSummary(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.svc.GetSession(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, interview.Summarize(session, h.catalog.ListConcepts()))
}

// ExportSession handles GET /api/sessions/{sessionID}/export, serving the
// full session as a JSON download.
func (h *SessionHandler) ExportSession(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")

	session, err := h.svc.GetSession(r.Context(), sessionID)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	filename, data, err := interview.Export(session)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	api.Download(w, filename, data)
}
