package storage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

// MultiStore aggregates several artifact stores for redundancy. Stores go to
// every backend; a store succeeds if at least one backend accepted the
// artifact. Fetches return the first backend's hit.
type MultiStore struct {
	backends []interfaces.ArtifactStore
	log      *slog.Logger
}

// NewMultiStore creates an aggregate over the given backends.
func NewMultiStore(backends []interfaces.ArtifactStore, log *slog.Logger) (*MultiStore, error) {
	if len(backends) == 0 {
		return nil, errors.New("multi store requires at least one backend")
	}
	return &MultiStore{backends: backends, log: log}, nil
}

func (m *MultiStore) Store(ctx context.Context, kind interfaces.ArtifactKind, data []byte) (interfaces.ArtifactID, error) {
	id := interfaces.ComputeArtifactID(data)

	var stored int
	for _, backend := range m.backends {
		if _, err := backend.Store(ctx, kind, data); err != nil {
			m.log.Warn("Artifact store failed on backend",
				"backend", string(backend.LocationURI()), "kind", kind.String(), "err", err)
			continue
		}
		stored++
	}

	if stored == 0 {
		return interfaces.ArtifactID{}, fmt.Errorf("all %d backends failed to store artifact %s", len(m.backends), id)
	}
	return id, nil
}

func (m *MultiStore) Fetch(ctx context.Context, kind interfaces.ArtifactKind, id interfaces.ArtifactID) ([]byte, error) {
	for _, backend := range m.backends {
		data, err := backend.Fetch(ctx, kind, id)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, interfaces.ErrArtifactNotFound) {
			m.log.Debug("Artifact fetch failed on backend",
				"backend", string(backend.LocationURI()), "err", err)
		}
	}
	return nil, interfaces.ErrArtifactNotFound
}

// Available reports true if any backend is reachable.
func (m *MultiStore) Available(ctx context.Context) bool {
	for _, backend := range m.backends {
		if backend.Available(ctx) {
			return true
		}
	}
	return false
}

func (m *MultiStore) LocationURI() interfaces.ArtifactStoreLocation {
	uris := make([]string, len(m.backends))
	for i, backend := range m.backends {
		uris[i] = string(backend.LocationURI())
	}
	return interfaces.ArtifactStoreLocation(strings.Join(uris, ","))
}
