package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

// IPFSStore keeps artifacts in IPFS. Since IPFS addresses content by its own
// CID rather than our SHA-256 artifact IDs, the store keeps an in-memory
// index from artifact ID to CID; artifacts stored by other processes are not
// fetchable through this instance.
type IPFSStore struct {
	shell       *shell.Shell
	log         *slog.Logger
	locationURI interfaces.ArtifactStoreLocation

	mu   sync.RWMutex
	cids map[string]string
}

// NewIPFSStore creates an IPFS artifact store talking to the node API at
// host:port.
func NewIPFSStore(host, port string, log *slog.Logger) (*IPFSStore, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)
	return &IPFSStore{
		shell:       shell.NewShell(apiURL),
		log:         log,
		locationURI: interfaces.ArtifactStoreLocation(fmt.Sprintf("ipfs://%s", apiURL)),
		cids:        make(map[string]string),
	}, nil
}

func (s *IPFSStore) indexKey(kind interfaces.ArtifactKind, id interfaces.ArtifactID) string {
	return kind.String() + "/" + id.String()
}

func (s *IPFSStore) Store(ctx context.Context, kind interfaces.ArtifactKind, data []byte) (interfaces.ArtifactID, error) {
	if !s.shell.IsUp() {
		return interfaces.ArtifactID{}, interfaces.ErrBackendUnavailable
	}

	id := interfaces.ComputeArtifactID(data)
	cid, err := s.shell.Add(bytes.NewReader(data))
	if err != nil {
		return interfaces.ArtifactID{}, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	s.mu.Lock()
	s.cids[s.indexKey(kind, id)] = cid
	s.mu.Unlock()

	s.log.Debug("Stored artifact in IPFS", "kind", kind.String(), "id", id.String(), "cid", cid)
	return id, nil
}

func (s *IPFSStore) Fetch(ctx context.Context, kind interfaces.ArtifactKind, id interfaces.ArtifactID) ([]byte, error) {
	s.mu.RLock()
	cid, ok := s.cids[s.indexKey(kind, id)]
	s.mu.RUnlock()
	if !ok {
		return nil, interfaces.ErrArtifactNotFound
	}

	if !s.shell.IsUp() {
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := s.shell.Cat(cid)
	if err != nil {
		if strings.Contains(err.Error(), "no link named") {
			return nil, interfaces.ErrArtifactNotFound
		}
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("reading IPFS content: %w", err)
	}

	if !interfaces.ComputeArtifactID(data).Equal(id) {
		return nil, fmt.Errorf("artifact %s failed content verification", id)
	}
	return data, nil
}

func (s *IPFSStore) Available(ctx context.Context) bool {
	return s.shell.IsUp()
}

func (s *IPFSStore) LocationURI() interfaces.ArtifactStoreLocation {
	return s.locationURI
}
