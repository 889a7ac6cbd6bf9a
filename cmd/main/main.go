package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"ciit-backend/internal/handlers"
	"ciit-backend/internal/observability"
	"ciit-backend/internal/repository/filestore"
	"ciit-backend/internal/service/catalog"
	"ciit-backend/internal/service/interview"
	"ciit-backend/pkg/config"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg := config.New()

	if err := os.MkdirAll(cfg.ConceptsDir, 0755); err != nil {
		logger.Fatal("Failed to create concepts directory", zap.Error(err))
	}

	catalogStore, err := filestore.NewCatalog(cfg.ConceptsDir, cfg.TopicsFile, cfg.BarriersFile, logger)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}

	sessionStore, err := filestore.NewSessions(cfg.SessionsDir, logger)
	if err != nil {
		logger.Fatal("Failed to open session store", zap.Error(err))
	}

	imageStore, err := filestore.NewImages(cfg.ImagesDir)
	if err != nil {
		logger.Fatal("Failed to open image store", zap.Error(err))
	}

	collector := observability.NewCollector("ciit")

	watcher, err := filestore.NewCatalogWatcher(catalogStore, logger)
	if err != nil {
		logger.Fatal("Failed to start catalog watcher", zap.Error(err))
	}
	watcher.OnReload(func(kind string) {
		collector.CatalogReloads.WithLabelValues(kind).Inc()
	})
	watcher.Start()
	defer watcher.Stop()

	catalogSvc := catalog.NewService(catalogStore, imageStore, logger)
	sessionSvc := interview.NewService(sessionStore, logger)

	router := handlers.NewRouter(catalogSvc, sessionSvc, collector, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router.Setup(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Server running", zap.String("port", cfg.Port), zap.String("dataDir", cfg.DataDir))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}
}
