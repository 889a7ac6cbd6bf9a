package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"ciit-backend/internal/domain"
	"ciit-backend/internal/service/catalog"
	"ciit-backend/pkg/api"
)

// CatalogHandler handles catalog-related HTTP requests.
type CatalogHandler struct {
	svc    catalog.Service
	logger *zap.Logger
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(svc catalog.Service, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{svc: svc, logger: logger}
}

// ListTopics handles GET /api/topics
func (h *CatalogHandler) ListTopics(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.svc.ListTopics())
}

// ListBarriers handles GET /api/barriers
func (h *CatalogHandler) ListBarriers(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.svc.ListBarriers())
}

// ListConcepts handles GET /api/concepts
func (h *CatalogHandler) ListConcepts(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, h.svc.ListConcepts())
}

// updateTopicsRequest is the body for PATCH /api/concepts/{conceptID}/topics.
type updateTopicsRequest struct {
	Topics []string `json:"topics"`
}

// conceptResponse wraps a concept in the success envelope the UI expects.
type conceptResponse struct {
	Success bool           `json:"success"`
	Concept domain.Concept `json:"concept"`
}

// UpdateConceptTopics handles PATCH /api/concepts/{conceptID}/topics
func (h *CatalogHandler) UpdateConceptTopics(w http.ResponseWriter, r *http.Request) {
	conceptID := chi.URLParam(r, "conceptID")

	var req updateTopicsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	concept, err := h.svc.ReplaceConceptTopics(conceptID, req.Topics)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, conceptResponse{Success: true, Concept: *concept})
}

// UpdateConcept handles PUT /api/concepts/{conceptID}
func (h *CatalogHandler) UpdateConcept(w http.ResponseWriter, r *http.Request) {
	conceptID := chi.URLParam(r, "conceptID")

	var concept domain.Concept
	if err := json.NewDecoder(r.Body).Decode(&concept); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	updated, err := h.svc.ReplaceConcept(conceptID, concept)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, conceptResponse{Success: true, Concept: *updated})
}

// createConceptRequest is the body for POST /api/concepts. The id and image
// are optional; the id is derived from the name when absent.
type createConceptRequest struct {
	ID               string                   `json:"id" validate:"omitempty,lowercase"`
	Name             string                   `json:"name" validate:"required_without=ID"`
	Tagline          string                   `json:"tagline"`
	Category         string                   `json:"category"`
	Layer            string                   `json:"layer"`
	Image            string                   `json:"image"`
	Topics           []string                 `json:"topics"`
	Details          []domain.ConceptDetail   `json:"details"`
	BarrierSolutions []domain.BarrierSolution `json:"barrierSolutions,omitempty"`
}

// CreateConcept handles POST /api/concepts
func (h *CatalogHandler) CreateConcept(w http.ResponseWriter, r *http.Request) {
	var req createConceptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validateStruct(req); err != nil {
		api.Error(w, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	concept, err := h.svc.CreateConcept(domain.Concept{
		ID:               req.ID,
		Name:             req.Name,
		Tagline:          req.Tagline,
		Category:         req.Category,
		Layer:            req.Layer,
		Image:            req.Image,
		Topics:           req.Topics,
		Details:          req.Details,
		BarrierSolutions: req.BarrierSolutions,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]interface{}{"concept": concept})
}

// UploadConceptImage handles POST /api/concepts/{conceptID}/image
func (h *CatalogHandler) UploadConceptImage(w http.ResponseWriter, r *http.Request) {
	conceptID := chi.URLParam(r, "conceptID")

	// The hard cap sits above the service's 5 MiB limit so a moderately
	// oversize upload is reported as a validation error rather than a
	// truncated read.
	r.Body = http.MaxBytesReader(w, r.Body, 2*catalog.MaxImageBytes)
	if err := r.ParseMultipartForm(catalog.MaxImageBytes); err != nil {
		api.Error(w, http.StatusBadRequest, "Invalid multipart form: "+err.Error())
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		api.Error(w, http.StatusBadRequest, "No image file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "Failed to read image: "+err.Error())
		return
	}

	concept, filename, err := h.svc.SetConceptImage(conceptID, data, header.Header.Get("Content-Type"), header.Filename)
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}
	api.Success(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"image":   filename,
		"concept": concept,
	})
}
