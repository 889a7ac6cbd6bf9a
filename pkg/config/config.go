// Package config loads server configuration from the environment.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// Config holds all runtime settings for the interview backend.
type Config struct {
	Port             string
	DataDir          string
	ConceptsDir      string
	SessionsDir      string
	TopicsFile       string
	BarriersFile     string
	ImagesDir        string
	CacheDir         string
	AutosaveInterval time.Duration
}

// New builds a Config from environment variables with local-development defaults.
func New() Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "data"
	}

	imagesDir := os.Getenv("IMAGES_DIR")
	if imagesDir == "" {
		imagesDir = filepath.Join(dataDir, "images", "concepts")
	}

	cacheDir := os.Getenv("CACHE_DIR")
	if cacheDir == "" {
		cacheDir = filepath.Join(dataDir, "cache")
	}

	autosave := 30 * time.Second
	if v := os.Getenv("AUTOSAVE_INTERVAL_SECONDS"); v != "" {
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			autosave = time.Duration(secs) * time.Second
		}
	}

	return Config{
		Port:             port,
		DataDir:          dataDir,
		ConceptsDir:      filepath.Join(dataDir, "concepts"),
		SessionsDir:      filepath.Join(dataDir, "sessions"),
		TopicsFile:       filepath.Join(dataDir, "topics.yaml"),
		BarriersFile:     filepath.Join(dataDir, "barriers.yaml"),
		ImagesDir:        imagesDir,
		CacheDir:         cacheDir,
		AutosaveInterval: autosave,
	}
}
