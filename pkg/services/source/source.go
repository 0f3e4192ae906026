package source

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/de-tools/transparency-atlas/pkg/models/domain"
)

// Source loads the raw CSV export of a category.
type Source interface {
	Load(ctx context.Context, c domain.Category) (string, error)
}

// Manifest overrides the file name of a category.
type Manifest map[domain.Category]string

// FileName returns the manifest entry for c or the category's default file.
func (m Manifest) FileName(c domain.Category) string {
	if name, ok := m[c]; ok && name != "" {
		return name
	}
	return c.FileName()
}

// DirSource reads exports from a local directory.
type DirSource struct {
	dir      string
	manifest Manifest
}

func NewDirSource(dir string, manifest Manifest) *DirSource {
	return &DirSource{dir: dir, manifest: manifest}
}

func (s *DirSource) Load(ctx context.Context, c domain.Category) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", domain.ErrInvalidCategory, c)
	}

	path := filepath.Join(s.dir, s.manifest.FileName(c))
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s export: %w", c, err)
	}
	return string(data), nil
}

// StaticSource serves in-memory exports.
type StaticSource map[domain.Category]string

func (s StaticSource) Load(ctx context.Context, c domain.Category) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	text, ok := s[c]
	if !ok {
		return "", fmt.Errorf("no export for %s: %w", c, os.ErrNotExist)
	}
	return text, nil
}
