// Package filestore implements the repository ports on top of a directory
// of flat files: YAML for catalog records, JSON for sessions.
package filestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"ciit-backend/internal/domain"
	"ciit-backend/internal/repository"
)

// topicsDocument is the on-disk shape of the topics file.
type topicsDocument struct {
	Topics []domain.Topic `yaml:"topics"`
}

// barriersDocument is the on-disk shape of the barriers file.
type barriersDocument struct {
	Barriers []domain.Barrier `yaml:"barriers"`
}

// Catalog is a file-backed catalog store: one YAML file per concept plus a
// topics file and a barriers file. All reads are served from an in-memory
// cache; Reload and the targeted reload methods refresh it.
type Catalog struct {
	conceptsDir  string
	topicsFile   string
	barriersFile string
	logger       *zap.Logger

	mu       sync.RWMutex
	concepts []domain.Concept
	topics   []domain.Topic
	barriers []domain.Barrier
}

var _ repository.CatalogRepository = (*Catalog)(nil)

// NewCatalog creates the store and performs the initial load. A missing
// topics or barriers file is tolerated (empty list); an unreadable
// concepts directory is not.
func NewCatalog(conceptsDir, topicsFile, barriersFile string, logger *zap.Logger) (*Catalog, error) {
	c := &Catalog{
		conceptsDir:  conceptsDir,
		topicsFile:   topicsFile,
		barriersFile: barriersFile,
		logger:       logger,
	}
	if err := c.Reload(); err != nil {
		return nil, err
	}
	return c, nil
}

// Reload re-reads the full catalog from disk.
func (c *Catalog) Reload() error {
	if err := c.ReloadConcepts(); err != nil {
		return err
	}
	c.ReloadTopics()
	c.ReloadBarriers()
	return nil
}

// ReloadConcepts re-reads every concept file. Individual files that fail to
// parse are logged and skipped so one bad record does not hide the rest.
func (c *Catalog) ReloadConcepts() error {
	entries, err := os.ReadDir(c.conceptsDir)
	if err != nil {
		return fmt.Errorf("failed to read concepts directory: %w", err)
	}

	concepts := make([]domain.Concept, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(c.conceptsDir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			c.logger.Error("Failed to read concept file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		var concept domain.Concept
		if err := yaml.Unmarshal(data, &concept); err != nil {
			c.logger.Error("Failed to parse concept file", zap.String("file", entry.Name()), zap.Error(err))
			continue
		}
		concepts = append(concepts, concept)
	}

	c.mu.Lock()
	c.concepts = concepts
	c.mu.Unlock()

	c.logger.Info("Loaded concepts", zap.Int("count", len(concepts)))
	return nil
}

// ReloadTopics re-reads the topics file. A missing or unparsable file
// leaves an empty list, matching the original server's behavior.
func (c *Catalog) ReloadTopics() {
	topics := c.loadTopicsFile()

	c.mu.Lock()
	c.topics = topics
	c.mu.Unlock()

	c.logger.Info("Loaded topics", zap.Int("count", len(topics)))
}

func (c *Catalog) loadTopicsFile() []domain.Topic {
	data, err := os.ReadFile(c.topicsFile)
	if err != nil {
		c.logger.Warn("Failed to read topics file", zap.Error(err))
		return []domain.Topic{}
	}
	var doc topicsDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		c.logger.Error("Failed to parse topics file", zap.Error(err))
		return []domain.Topic{}
	}
	if doc.Topics == nil {
		return []domain.Topic{}
	}
	return doc.Topics
}

// ReloadBarriers re-reads the barriers file, mirroring ReloadTopics.
func (c *Catalog) ReloadBarriers() {
	barriers := c.loadBarriersFile()

	c.mu.Lock()
	c.barriers = barriers
	c.mu.Unlock()

	c.logger.Info("Loaded barriers", zap.Int("count", len(barriers)))
}

func (c *Catalog) loadBarriersFile() []domain.Barrier {
	data, err := os.ReadFile(c.barriersFile)
	if err != nil {
		c.logger.Warn("Failed to read barriers file", zap.Error(err))
		return []domain.Barrier{}
	}
	var doc barriersDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		c.logger.Error("Failed to parse barriers file", zap.Error(err))
		return []domain.Barrier{}
	}
	if doc.Barriers == nil {
		return []domain.Barrier{}
	}
	return doc.Barriers
}

// Topics returns the cached topic list in file order.
func (c *Catalog) Topics() []domain.Topic {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Topic, len(c.topics))
	copy(out, c.topics)
	return out
}

// Barriers returns the cached barrier list in file order.
func (c *Catalog) Barriers() []domain.Barrier {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Barrier, len(c.barriers))
	copy(out, c.barriers)
	return out
}

// Concepts returns the cached concept list in load order.
func (c *Catalog) Concepts() []domain.Concept {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Concept, len(c.concepts))
	copy(out, c.concepts)
	return out
}

// LoadConcept reads a concept record fresh from its backing file, bypassing
// the cache so targeted updates never operate on stale data.
func (c *Catalog) LoadConcept(id string) (*domain.Concept, error) {
	data, err := os.ReadFile(c.conceptPath(id))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, repository.NewNotFound("concept", id)
		}
		return nil, fmt.Errorf("failed to read concept '%s': %w", id, err)
	}
	var concept domain.Concept
	if err := yaml.Unmarshal(data, &concept); err != nil {
		return nil, fmt.Errorf("failed to parse concept '%s': %w", id, err)
	}
	return &concept, nil
}

// SaveConcept writes a concept record to its backing file and refreshes the
// cache entry in place. A record with a new id is appended to the cache.
func (c *Catalog) SaveConcept(concept *domain.Concept) error {
	data, err := yaml.Marshal(concept)
	if err != nil {
		return fmt.Errorf("failed to marshal concept '%s': %w", concept.ID, err)
	}
	if err := writeFileAtomic(c.conceptPath(concept.ID), data); err != nil {
		return fmt.Errorf("failed to write concept '%s': %w", concept.ID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.concepts {
		if c.concepts[i].ID == concept.ID {
			c.concepts[i] = *concept
			return nil
		}
	}
	c.concepts = append(c.concepts, *concept)
	return nil
}

// ConceptExists reports whether a backing record exists for the id.
func (c *Catalog) ConceptExists(id string) bool {
	_, err := os.Stat(c.conceptPath(id))
	return err == nil
}

func (c *Catalog) conceptPath(id string) string {
	return filepath.Join(c.conceptsDir, id+".yaml")
}

// writeFileAtomic writes via a temp file and rename so the catalog watcher
// never observes a half-written record.
func writeFileAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
