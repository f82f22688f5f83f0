package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

// VaultStore keeps artifacts in HashiCorp Vault's KV v2 engine. Artifact
// bytes are base64-encoded into the secret payload.
type VaultStore struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI interfaces.ArtifactStoreLocation
}

// NewVaultStore creates a Vault artifact store.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: path within the mount (e.g. "enclaved")
//   - token: Vault token
func NewVaultStore(address, mountPath, dataPath, token string, log *slog.Logger) (*VaultStore, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	client.SetToken(token)

	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultStore{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: interfaces.ArtifactStoreLocation(fmt.Sprintf("vault://%s/%s/%s", address, mountPath, dataPath)),
	}, nil
}

func (s *VaultStore) path(kind interfaces.ArtifactKind, id interfaces.ArtifactID) string {
	// Vault KV v2 path structure.
	return fmt.Sprintf("%s/data/%s/%s/%s", s.mountPath, s.dataPath, kind.String(), id.String())
}

func (s *VaultStore) Store(ctx context.Context, kind interfaces.ArtifactKind, data []byte) (interfaces.ArtifactID, error) {
	id := interfaces.ComputeArtifactID(data)

	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"artifact": base64.StdEncoding.EncodeToString(data),
		},
	}

	if _, err := s.client.Logical().WriteWithContext(ctx, s.path(kind, id), payload); err != nil {
		return interfaces.ArtifactID{}, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	s.log.Debug("Stored artifact in Vault", "kind", kind.String(), "id", id.String())
	return id, nil
}

func (s *VaultStore) Fetch(ctx context.Context, kind interfaces.ArtifactKind, id interfaces.ArtifactID) ([]byte, error) {
	secret, err := s.client.Logical().ReadWithContext(ctx, s.path(kind, id))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, interfaces.ErrArtifactNotFound
	}

	// KV v2 wraps the payload in a "data" map.
	inner, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response for %s", id)
	}

	encoded, ok := inner["artifact"].(string)
	if !ok {
		return nil, interfaces.ErrArtifactNotFound
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decoding Vault artifact: %w", err)
	}

	if !interfaces.ComputeArtifactID(data).Equal(id) {
		return nil, fmt.Errorf("artifact %s failed content verification", id)
	}
	return data, nil
}

func (s *VaultStore) Available(ctx context.Context) bool {
	health, err := s.client.Sys().HealthWithContext(ctx)
	return err == nil && health.Initialized && !health.Sealed
}

func (s *VaultStore) LocationURI() interfaces.ArtifactStoreLocation {
	return s.locationURI
}
