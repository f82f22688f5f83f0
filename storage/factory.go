package storage

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

// Factory creates artifact stores from location URIs.
type Factory struct {
	log *slog.Logger
}

// NewFactory creates a store factory.
func NewFactory(log *slog.Logger) *Factory {
	return &Factory{log: log}
}

// StoreFor creates an artifact store from a location URI.
// The URI format is [scheme]://[auth@]host[:port][/path][?params].
//
// Supported schemes:
//   - file:// - local filesystem
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS node API
//   - vault:// - HashiCorp Vault KV v2
func (f *Factory) StoreFor(location interfaces.ArtifactStoreLocation) (interfaces.ArtifactStore, error) {
	u, err := url.Parse(string(location))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return f.createFileStore(u)
	case "s3":
		return f.createS3Store(u)
	case "ipfs":
		return f.createIPFSStore(u)
	case "vault":
		return f.createVaultStore(u)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// CreateMultiStore aggregates every valid backend from the URI list.
// Invalid URIs are skipped with a warning; at least one backend must be
// creatable.
func (f *Factory) CreateMultiStore(locations []interfaces.ArtifactStoreLocation) (interfaces.ArtifactStore, error) {
	backends := make([]interfaces.ArtifactStore, 0, len(locations))
	for _, location := range locations {
		backend, err := f.StoreFor(location)
		if err != nil {
			f.log.Warn("Skipping invalid artifact store location", "uri", string(location), "err", err)
			continue
		}
		backends = append(backends, backend)
	}

	if len(backends) == 0 {
		return nil, fmt.Errorf("%w: no valid artifact store locations", interfaces.ErrInvalidLocationURI)
	}
	if len(backends) == 1 {
		return backends[0], nil
	}
	return NewMultiStore(backends, f.log)
}

func (f *Factory) createFileStore(u *url.URL) (interfaces.ArtifactStore, error) {
	path := u.Path
	if u.Host != "" {
		// Relative form file://dir/path.
		path = u.Host + u.Path
	}
	if path == "" {
		return nil, fmt.Errorf("%w: file URI requires a path", interfaces.ErrInvalidLocationURI)
	}
	return NewFileStore(path, f.log)
}

func (f *Factory) createS3Store(u *url.URL) (interfaces.ArtifactStore, error) {
	bucket := u.Host
	if bucket == "" {
		return nil, fmt.Errorf("%w: s3 URI requires a bucket", interfaces.ErrInvalidLocationURI)
	}

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	}

	return NewS3Store(bucket, strings.TrimPrefix(u.Path, "/"), region, query.Get("endpoint"), accessKey, secretKey, f.log)
}

func (f *Factory) createIPFSStore(u *url.URL) (interfaces.ArtifactStore, error) {
	host := u.Hostname()
	if host == "" {
		return nil, fmt.Errorf("%w: ipfs URI requires a host", interfaces.ErrInvalidLocationURI)
	}

	port := u.Port()
	if port == "" {
		port = "5001"
	}
	return NewIPFSStore(host, port, f.log)
}

func (f *Factory) createVaultStore(u *url.URL) (interfaces.ArtifactStore, error) {
	if u.Host == "" {
		return nil, fmt.Errorf("%w: vault URI requires an address", interfaces.ErrInvalidLocationURI)
	}

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	mountPath := "secret"
	dataPath := "enclaved"
	if len(parts) > 0 && parts[0] != "" {
		mountPath = parts[0]
	}
	if len(parts) > 1 {
		dataPath = parts[1]
	}

	scheme := "https"
	if u.Query().Get("insecure") == "true" {
		scheme = "http"
	}
	address := fmt.Sprintf("%s://%s", scheme, u.Host)

	return NewVaultStore(address, mountPath, dataPath, u.Query().Get("token"), f.log)
}
