package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

// FileStore keeps artifacts on the local filesystem, one subdirectory per
// artifact kind.
type FileStore struct {
	baseDir     string
	log         *slog.Logger
	locationURI interfaces.ArtifactStoreLocation
}

// NewFileStore creates a file store rooted at baseDir, creating the kind
// subdirectories if needed.
func NewFileStore(baseDir string, log *slog.Logger) (*FileStore, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create base directory: %w", err)
	}

	for _, kind := range []interfaces.ArtifactKind{interfaces.SeedArtifact, interfaces.QuoteArtifact, interfaces.CertArtifact} {
		if err := os.MkdirAll(filepath.Join(baseDir, kind.String()), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", kind, err)
		}
	}

	return &FileStore{
		baseDir:     baseDir,
		log:         log,
		locationURI: interfaces.ArtifactStoreLocation(fmt.Sprintf("file://%s", baseDir)),
	}, nil
}

func (s *FileStore) path(kind interfaces.ArtifactKind, id interfaces.ArtifactID) string {
	return filepath.Join(s.baseDir, kind.String(), id.String())
}

// Store writes the artifact under its content hash.
func (s *FileStore) Store(ctx context.Context, kind interfaces.ArtifactKind, data []byte) (interfaces.ArtifactID, error) {
	id := interfaces.ComputeArtifactID(data)
	if err := os.WriteFile(s.path(kind, id), data, 0o600); err != nil {
		return interfaces.ArtifactID{}, fmt.Errorf("writing artifact: %w", err)
	}

	s.log.Debug("Stored artifact", "kind", kind.String(), "id", id.String())
	return id, nil
}

// Fetch reads an artifact back by ID.
func (s *FileStore) Fetch(ctx context.Context, kind interfaces.ArtifactKind, id interfaces.ArtifactID) ([]byte, error) {
	data, err := os.ReadFile(s.path(kind, id))
	if os.IsNotExist(err) {
		return nil, interfaces.ErrArtifactNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading artifact: %w", err)
	}

	if !interfaces.ComputeArtifactID(data).Equal(id) {
		return nil, fmt.Errorf("artifact %s failed content verification", id)
	}
	return data, nil
}

// Available reports whether the base directory is accessible.
func (s *FileStore) Available(ctx context.Context) bool {
	_, err := os.Stat(s.baseDir)
	return err == nil
}

func (s *FileStore) LocationURI() interfaces.ArtifactStoreLocation {
	return s.locationURI
}
