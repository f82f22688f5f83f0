package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFileStoreRoundtrip(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	data := []byte("sealed seed artifact")
	id, err := store.Store(context.Background(), interfaces.SeedArtifact, data)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ComputeArtifactID(data), id)

	fetched, err := store.Fetch(context.Background(), interfaces.SeedArtifact, id)
	require.NoError(t, err)
	assert.Equal(t, data, fetched)
}

func TestFileStoreKindsAreSeparateNamespaces(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	data := []byte("same bytes")
	id, err := store.Store(context.Background(), interfaces.QuoteArtifact, data)
	require.NoError(t, err)

	_, err = store.Fetch(context.Background(), interfaces.SeedArtifact, id)
	assert.ErrorIs(t, err, interfaces.ErrArtifactNotFound)
}

func TestFileStoreNotFound(t *testing.T) {
	store, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	_, err = store.Fetch(context.Background(), interfaces.SeedArtifact, interfaces.ComputeArtifactID([]byte("missing")))
	assert.ErrorIs(t, err, interfaces.ErrArtifactNotFound)
}

// flakyStore fails every operation, for exercising multi-store fallback.
type flakyStore struct{}

func (flakyStore) Store(ctx context.Context, kind interfaces.ArtifactKind, data []byte) (interfaces.ArtifactID, error) {
	return interfaces.ArtifactID{}, interfaces.ErrBackendUnavailable
}

func (flakyStore) Fetch(ctx context.Context, kind interfaces.ArtifactKind, id interfaces.ArtifactID) ([]byte, error) {
	return nil, interfaces.ErrBackendUnavailable
}

func (flakyStore) Available(ctx context.Context) bool { return false }

func (flakyStore) LocationURI() interfaces.ArtifactStoreLocation { return "flaky://" }

func TestMultiStoreStoresDespitePartialFailure(t *testing.T) {
	fileStore, err := NewFileStore(t.TempDir(), testLogger())
	require.NoError(t, err)

	multi, err := NewMultiStore([]interfaces.ArtifactStore{flakyStore{}, fileStore}, testLogger())
	require.NoError(t, err)

	data := []byte("artifact")
	id, err := multi.Store(context.Background(), interfaces.CertArtifact, data)
	require.NoError(t, err)

	fetched, err := multi.Fetch(context.Background(), interfaces.CertArtifact, id)
	require.NoError(t, err)
	assert.Equal(t, data, fetched)
}

func TestMultiStoreAllBackendsFailing(t *testing.T) {
	multi, err := NewMultiStore([]interfaces.ArtifactStore{flakyStore{}, flakyStore{}}, testLogger())
	require.NoError(t, err)

	_, err = multi.Store(context.Background(), interfaces.SeedArtifact, []byte("artifact"))
	assert.Error(t, err)
}

func TestFactoryCreatesFileStore(t *testing.T) {
	factory := NewFactory(testLogger())

	store, err := factory.StoreFor(interfaces.ArtifactStoreLocation("file://" + t.TempDir()))
	require.NoError(t, err)
	assert.True(t, store.Available(context.Background()))
}

func TestFactoryRejectsUnsupportedScheme(t *testing.T) {
	factory := NewFactory(testLogger())

	_, err := factory.StoreFor("ftp://example.com/artifacts")
	assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
}

func TestFactoryMultiStoreSkipsInvalid(t *testing.T) {
	factory := NewFactory(testLogger())

	store, err := factory.CreateMultiStore([]interfaces.ArtifactStoreLocation{
		"ftp://invalid",
		interfaces.ArtifactStoreLocation("file://" + t.TempDir()),
	})
	require.NoError(t, err)

	data := []byte("artifact")
	id, err := store.Store(context.Background(), interfaces.QuoteArtifact, data)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ComputeArtifactID(data), id)
}
