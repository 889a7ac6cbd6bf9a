// Package repository defines the persistence ports for the catalog and
// session stores. Implementations live in the filestore subpackage.
package repository

import (
	"context"

	"ciit-backend/internal/domain"
)

// CatalogRepository provides read access to the cached catalog and targeted
// writes to individual concept records. Reads serve the in-memory cache;
// LoadConcept always goes to the backing file so concurrent edits from the
// filesystem are observed.
type CatalogRepository interface {
	// Topics returns the cached topic list in file order.
	Topics() []domain.Topic

	// Barriers returns the cached barrier list in file order.
	Barriers() []domain.Barrier

	// Concepts returns the cached concept list in load order.
	Concepts() []domain.Concept

	// LoadConcept reads a concept's backing record fresh from storage.
	LoadConcept(id string) (*domain.Concept, error)

	// SaveConcept persists a concept record and refreshes the cache entry.
	SaveConcept(concept *domain.Concept) error

	// Reload re-reads the entire catalog from disk.
	Reload() error
}

// ImageStore persists uploaded concept images.
type ImageStore interface {
	// Save writes image data under a name derived from the concept id and
	// the original extension, returning the stored filename.
	Save(conceptID, ext string, data []byte) (string, error)
}

// SessionRepository provides durable per-session storage, one record per
// identifier. Put is an unconditional overwrite with upsert semantics.
type SessionRepository interface {
	List(ctx context.Context) ([]domain.Session, error)
	Get(ctx context.Context, id string) (*domain.Session, error)
	Put(ctx context.Context, session *domain.Session) error
	Delete(ctx context.Context, id string) error
	Exists(ctx context.Context, id string) (bool, error)
}

// SnapshotCache is the local durability tier for in-progress sessions: a
// small key-value store that survives process crashes. Load returns
// (nil, nil) when the key is absent.
type SnapshotCache interface {
	Load(key string) ([]byte, error)
	Store(key string, data []byte) error
	Remove(key string) error
}
