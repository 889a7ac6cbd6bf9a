package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"ciit-backend/internal/observability"
	"ciit-backend/internal/service/catalog"
	"ciit-backend/internal/service/interview"
)

// Router creates and configures the HTTP router.
type Router struct {
	catalogSvc catalog.Service
	sessionSvc interview.Service
	collector  *observability.Collector
	logger     *zap.Logger
}

// NewRouter creates a new router instance.
func NewRouter(
	catalogSvc catalog.Service,
	sessionSvc interview.Service,
	collector *observability.Collector,
	logger *zap.Logger,
) *Router {
	return &Router{
		catalogSvc: catalogSvc,
		sessionSvc: sessionSvc,
		collector:  collector,
		logger:     logger,
	}
}

// Setup configures all routes and middleware.
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(chimiddleware.RealIP)
	router.Use(chimiddleware.Recoverer)
	router.Use(RequestID())
	router.Use(Logger(rt.logger))
	router.Use(Metrics(rt.collector))

	// The interview UI runs on a separate dev server.
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check and metrics
	router.Get("/health", rt.healthCheck)
	router.Method(http.MethodGet, "/metrics", rt.collector.Handler())

	router.Route("/api", func(r chi.Router) {
		catalogHandler := NewCatalogHandler(rt.catalogSvc, rt.logger)
		r.Get("/topics", catalogHandler.ListTopics)
		r.Get("/barriers", catalogHandler.ListBarriers)

		r.Route("/concepts", func(r chi.Router) {
			r.Get("/", catalogHandler.ListConcepts)
			r.Post("/", catalogHandler.CreateConcept)
			r.Patch("/{conceptID}/topics", catalogHandler.UpdateConceptTopics)
			r.Put("/{conceptID}", catalogHandler.UpdateConcept)
			r.Post("/{conceptID}/image", catalogHandler.UploadConceptImage)
		})

		sessionHandler := NewSessionHandler(rt.sessionSvc, rt.catalogSvc, rt.collector, rt.logger)
		r.Route("/sessions", func(r chi.Router) {
			r.Get("/", sessionHandler.ListSessions)
			r.Post("/", sessionHandler.CreateSession)
			r.Get("/{sessionID}", sessionHandler.GetSession)
			r.Put("/{sessionID}", sessionHandler.UpdateSession)
			r.Delete("/{sessionID}", sessionHandler.DeleteSession)
			r.Get("/{sessionID}/summary", sessionHandler.GetSessionSummary)
			r.Get("/{sessionID}/export", sessionHandler.ExportSession)
		})
	})

	return router
}

// healthCheck handles health check requests.
func (rt *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
