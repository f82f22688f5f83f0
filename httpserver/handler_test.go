package httpserver

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/sgx-enclave-host/attestation"
	"github.com/ruteri/sgx-enclave-host/cryptoutils"
	"github.com/ruteri/sgx-enclave-host/enclave"
	"github.com/ruteri/sgx-enclave-host/interfaces"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEnclaveImage(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, enclave.EnclaveFileName), []byte("image"), 0o600))
	t.Setenv(enclave.EnclaveDirEnv, dir)
}

// recordingStore captures archived artifacts by kind.
type recordingStore struct {
	mu        sync.Mutex
	artifacts map[interfaces.ArtifactKind][][]byte
}

func newRecordingStore() *recordingStore {
	return &recordingStore{artifacts: make(map[interfaces.ArtifactKind][][]byte)}
}

func (s *recordingStore) Store(ctx context.Context, kind interfaces.ArtifactKind, data []byte) (interfaces.ArtifactID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.artifacts[kind] = append(s.artifacts[kind], data)
	return interfaces.ComputeArtifactID(data), nil
}

func (s *recordingStore) Fetch(ctx context.Context, kind interfaces.ArtifactKind, id interfaces.ArtifactID) ([]byte, error) {
	return nil, interfaces.ErrArtifactNotFound
}

func (s *recordingStore) Available(ctx context.Context) bool { return true }

func (s *recordingStore) LocationURI() interfaces.ArtifactStoreLocation { return "test://recording" }

func (s *recordingStore) count(kind interfaces.ArtifactKind) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.artifacts[kind])
}

func testHandler(t *testing.T, cfg enclave.HostConfig, archive interfaces.ArtifactStore) (*Handler, *enclave.SimBridge) {
	t.Helper()
	testEnclaveImage(t)

	outside := attestation.NewOutsideCalls(attestation.DummyQuoteProvider{}, attestation.OutsideCallsConfig{}, testLogger())
	bridge, err := enclave.NewSimBridge(outside)
	require.NoError(t, err)

	host := enclave.NewHost(cfg, enclave.SimLoader{}, bridge, testLogger())
	service := attestation.NewService(bridge, testLogger())
	handler := NewHandler(host, service, attestation.DefaultRetryPolicy, archive, bridge, testLogger())
	return handler, bridge
}

func TestHandleSeedExchange(t *testing.T) {
	store := newRecordingStore()
	handler, _ := testHandler(t, enclave.HostConfig{}, store)

	_, certPEM, err := cryptoutils.CreateSeedExchangeCert("node.example.org", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/attested/seed", strings.NewReader(string(certPEM)))
	rec := httptest.NewRecorder()
	handler.HandleSeedExchange(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), "encrypted_seed")

	assert.Equal(t, 1, store.count(interfaces.CertArtifact))
	assert.Equal(t, 1, store.count(interfaces.SeedArtifact))
}

func TestHandleSeedExchangeRejectsBadCert(t *testing.T) {
	handler, _ := testHandler(t, enclave.HostConfig{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/attested/seed", strings.NewReader("not a certificate"))
	rec := httptest.NewRecorder()
	handler.HandleSeedExchange(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleSeedExchangeSaturated(t *testing.T) {
	handler, _ := testHandler(t, enclave.HostConfig{TCSCount: 1, AcquireTimeout: 20 * time.Millisecond}, nil)

	// Hold the only slot so the request finds none.
	token, ok := handler.host.Doorbell.Acquire(false)
	require.True(t, ok)
	defer token.Release()

	_, certPEM, err := cryptoutils.CreateSeedExchangeCert("node.example.org", time.Hour)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/attested/seed", strings.NewReader(string(certPEM)))
	rec := httptest.NewRecorder()
	handler.HandleSeedExchange(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestHandleProduceReport(t *testing.T) {
	store := newRecordingStore()
	handler, bridge := testHandler(t, enclave.HostConfig{}, store)

	req := httptest.NewRequest(http.MethodPost, "/api/attested/report", nil)
	rec := httptest.NewRecorder()
	handler.HandleProduceReport(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, bridge.Quote(), "report production must leave a quote behind")
	assert.Equal(t, 1, store.count(interfaces.QuoteArtifact))
}

func TestHandleStatus(t *testing.T) {
	handler, _ := testHandler(t, enclave.HostConfig{TCSCount: 4}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/public/status", nil)
	rec := httptest.NewRecorder()
	handler.HandleStatus(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"doorbell_capacity":4`)
	assert.Contains(t, rec.Body.String(), `"configured":false`)
}
