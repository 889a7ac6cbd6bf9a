// Package catalog provides business logic for the interview catalog:
// read access to topics, barriers and concepts, and the write paths the
// researcher UI uses to edit concept records.
package catalog

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"ciit-backend/internal/domain"
	"ciit-backend/internal/repository"
	appErrors "ciit-backend/pkg/errors"
)

// MaxImageBytes is the upload size limit for concept images.
const MaxImageBytes = 5 << 20 // 5 MiB

// allowedImageTypes maps accepted MIME types to the extension used when the
// upload's original filename carries none.
var allowedImageTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// Service defines catalog business operations.
type Service interface {
	// ListTopics returns all topics in file order.
	ListTopics() []domain.Topic

	// ListBarriers returns all barriers in file order.
	ListBarriers() []domain.Barrier

	// ListConcepts returns all concepts in load order.
	ListConcepts() []domain.Concept

	// ReplaceConceptTopics overwrites a concept's topic list and returns
	// the updated record.
	ReplaceConceptTopics(conceptID string, topicIDs []string) (*domain.Concept, error)

	// ReplaceConcept replaces an entire concept record. The stored id is
	// forced to conceptID regardless of the payload.
	ReplaceConcept(conceptID string, concept domain.Concept) (*domain.Concept, error)

	// CreateConcept appends a new concept record, deriving the id from the
	// name when absent.
	CreateConcept(concept domain.Concept) (*domain.Concept, error)

	// SetConceptImage validates and stores an uploaded image, then updates
	// the concept's image field. Returns the updated concept and the
	// stored filename.
	SetConceptImage(conceptID string, data []byte, declaredMIME, originalFilename string) (*domain.Concept, string, error)
}

type service struct {
	repo   repository.CatalogRepository
	images repository.ImageStore
	logger *zap.Logger
}

// NewService creates the catalog service.
func NewService(repo repository.CatalogRepository, images repository.ImageStore, logger *zap.Logger) Service {
	return &service{repo: repo, images: images, logger: logger}
}

func (s *service) ListTopics() []domain.Topic {
	return s.repo.Topics()
}

func (s *service) ListBarriers() []domain.Barrier {
	return s.repo.Barriers()
}

func (s *service) ListConcepts() []domain.Concept {
	return s.repo.Concepts()
}

// ReplaceConceptTopics loads the backing record fresh so a concurrent
// filesystem edit to other fields is not clobbered, then overwrites only
// the topic list.
func (s *service) ReplaceConceptTopics(conceptID string, topicIDs []string) (*domain.Concept, error) {
	concept, err := s.repo.LoadConcept(conceptID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if topicIDs == nil {
		topicIDs = []string{}
	}
	concept.Topics = topicIDs

	if err := s.repo.SaveConcept(concept); err != nil {
		return nil, appErrors.NewInternal("failed to update concept topics", err)
	}
	return concept, nil
}

func (s *service) ReplaceConcept(conceptID string, concept domain.Concept) (*domain.Concept, error) {
	if _, err := s.repo.LoadConcept(conceptID); err != nil {
		return nil, mapRepoError(err)
	}

	// Keep the id consistent with the path even if the payload disagrees.
	concept.ID = conceptID

	if err := s.repo.SaveConcept(&concept); err != nil {
		return nil, appErrors.NewInternal("failed to update concept", err)
	}
	return &concept, nil
}

func (s *service) CreateConcept(concept domain.Concept) (*domain.Concept, error) {
	if concept.ID == "" {
		concept.ID = domain.Slugify(concept.Name)
	}
	if concept.ID == "" {
		return nil, appErrors.NewValidation("concept requires a name or id")
	}
	if concept.Topics == nil {
		concept.Topics = []string{}
	}
	if concept.Details == nil {
		concept.Details = []domain.ConceptDetail{}
	}

	// Duplicate ids silently become overwrites; warn so accidental
	// collisions are visible in the logs.
	if _, err := s.repo.LoadConcept(concept.ID); err == nil {
		s.logger.Warn("Creating concept over an existing record", zap.String("conceptID", concept.ID))
	}

	if err := s.repo.SaveConcept(&concept); err != nil {
		return nil, appErrors.NewInternal("failed to create concept", err)
	}
	return &concept, nil
}

func (s *service) SetConceptImage(conceptID string, data []byte, declaredMIME, originalFilename string) (*domain.Concept, string, error) {
	// Missing concept wins over a bad upload, matching the API contract.
	concept, err := s.repo.LoadConcept(conceptID)
	if err != nil {
		return nil, "", mapRepoError(err)
	}

	defaultExt, ok := allowedImageTypes[strings.ToLower(declaredMIME)]
	if !ok {
		return nil, "", appErrors.NewValidation("invalid file type, only JPEG, PNG, GIF, and WebP are allowed")
	}
	if len(data) > MaxImageBytes {
		return nil, "", appErrors.NewValidation("image exceeds the 5 MiB size limit")
	}

	ext := strings.ToLower(filepath.Ext(originalFilename))
	if ext == "" {
		ext = defaultExt
	}

	filename, err := s.images.Save(conceptID, ext, data)
	if err != nil {
		return nil, "", appErrors.NewInternal("failed to store image", err)
	}

	concept.Image = filename
	if err := s.repo.SaveConcept(concept); err != nil {
		return nil, "", appErrors.NewInternal("failed to update concept image", err)
	}
	return concept, filename, nil
}

func mapRepoError(err error) error {
	if repository.IsNotFound(err) {
		return appErrors.NewNotFound(err.Error())
	}
	return appErrors.NewInternal("catalog storage failure", err)
}
