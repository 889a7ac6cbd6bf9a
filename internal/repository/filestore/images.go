package filestore

import (
	"fmt"
	"os"
	"path/filepath"

	"ciit-backend/internal/repository"
)

// Images stores uploaded concept images on disk, named
// "<conceptID><ext>" so re-uploads replace the previous image.
type Images struct {
	dir string
}

var _ repository.ImageStore = (*Images)(nil)

// NewImages creates the store, ensuring the images directory exists.
func NewImages(dir string) (*Images, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create images directory: %w", err)
	}
	return &Images{dir: dir}, nil
}

// Save writes the image payload and returns the stored filename. The
// extension must include its leading dot.
func (s *Images) Save(conceptID, ext string, data []byte) (string, error) {
	filename := conceptID + ext
	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0644); err != nil {
		return "", fmt.Errorf("failed to write image '%s': %w", filename, err)
	}
	return filename, nil
}
