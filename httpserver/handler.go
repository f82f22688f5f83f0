package httpserver

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/ruteri/sgx-enclave-host/attestation"
	"github.com/ruteri/sgx-enclave-host/cryptoutils"
	"github.com/ruteri/sgx-enclave-host/enclave"
	"github.com/ruteri/sgx-enclave-host/interfaces"
	"github.com/ruteri/sgx-enclave-host/metrics"
)

// maxBodySize is the maximum allowed request body size (1MB).
const maxBodySize = 1024 * 1024

// RequestError provides structured error information for HTTP responses.
type RequestError struct {
	// StatusCode is the HTTP status code to return.
	StatusCode int

	// Err is the underlying error.
	Err error
}

// Error returns the error message from the underlying error.
func (e *RequestError) Error() string {
	return e.Err.Error()
}

// QuoteSource exposes the quote produced by the last successful report call.
// Bridges that keep the quote host-side implement it; archiving is skipped
// otherwise.
type QuoteSource interface {
	Quote() []byte
}

// Handler processes provisioning requests against the enclave host. Every
// enclave-call path acquires a doorbell token first and releases it on all
// exits.
type Handler struct {
	host    *enclave.Host
	attest  *attestation.Service
	retry   attestation.RetryPolicy
	archive interfaces.ArtifactStore
	quotes  QuoteSource
	log     *slog.Logger
}

// NewHandler creates a provisioning handler.
//
// Parameters:
//   - host: enclave host owning the handle, gate, and doorbell
//   - attest: attestation flow service
//   - retry: retry policy for report production triggered over HTTP
//   - archive: optional artifact store; nil disables archiving
//   - quotes: optional quote source for archiving produced quotes
//   - log: structured logger
func NewHandler(host *enclave.Host, attest *attestation.Service, retry attestation.RetryPolicy, archive interfaces.ArtifactStore, quotes QuoteSource, log *slog.Logger) *Handler {
	return &Handler{
		host:    host,
		attest:  attest,
		retry:   retry,
		archive: archive,
		quotes:  quotes,
		log:     log,
	}
}

// HandleSeedExchange services POST /api/attested/seed. The body is the
// PEM-encoded seed-exchange certificate; the response carries the seed
// encrypted to the certificate's public key.
//
// Saturation of the enclave's execution slots yields 503: the caller should
// back off and retry. Enclave failures yield 502 with the platform status
// description.
func (h *Handler) HandleSeedExchange(w http.ResponseWriter, r *http.Request) {
	certPEM, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		h.respondError(w, &RequestError{http.StatusBadRequest, err})
		return
	}

	if _, err := cryptoutils.ParseSeedExchangeCert(certPEM); err != nil {
		h.respondError(w, &RequestError{http.StatusBadRequest, err})
		return
	}

	token, ok := h.host.Doorbell.Acquire(false)
	if !ok {
		metrics.DoorbellDenied.Inc()
		h.respondError(w, &RequestError{http.StatusServiceUnavailable, errors.New("no enclave execution slot available")})
		return
	}
	defer token.Release()

	handle, err := h.host.Enclave()
	if err != nil {
		h.respondError(w, &RequestError{http.StatusInternalServerError, err})
		return
	}

	seed, err := h.attest.GetEncryptedSeed(handle, certPEM)
	if err != nil {
		metrics.SeedProvisionFailures.Inc()
		h.respondError(w, &RequestError{seedFailureCode(err), err})
		return
	}
	metrics.SeedsProvisioned.Inc()

	h.archiveArtifact(r.Context(), interfaces.CertArtifact, certPEM)
	h.archiveArtifact(r.Context(), interfaces.SeedArtifact, seed[:])

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{
		"encrypted_seed": hex.EncodeToString(seed[:]),
	})
}

// HandleProduceReport services POST /api/attested/report, triggering report
// production under the handler's retry policy.
func (h *Handler) HandleProduceReport(w http.ResponseWriter, r *http.Request) {
	token, ok := h.host.Doorbell.Acquire(false)
	if !ok {
		metrics.DoorbellDenied.Inc()
		h.respondError(w, &RequestError{http.StatusServiceUnavailable, errors.New("no enclave execution slot available")})
		return
	}
	defer token.Release()

	handle, err := h.host.Enclave()
	if err != nil {
		h.respondError(w, &RequestError{http.StatusInternalServerError, err})
		return
	}

	if err := h.attest.ProduceReportWithRetry(r.Context(), handle, h.retry); err != nil {
		metrics.AttestationReportFailures.Inc()
		h.respondError(w, &RequestError{http.StatusBadGateway, err})
		return
	}
	metrics.AttestationReportsProduced.Inc()

	if h.quotes != nil {
		if quote := h.quotes.Quote(); len(quote) > 0 {
			h.archiveArtifact(r.Context(), interfaces.QuoteArtifact, quote)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"report produced"}`))
}

// HandleStatus services GET /api/public/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"doorbell_capacity":  h.host.Doorbell.Capacity(),
		"doorbell_available": h.host.Doorbell.Available(),
		"configured":         h.host.Gate.Configured(),
	})
}

func (h *Handler) archiveArtifact(ctx context.Context, kind interfaces.ArtifactKind, data []byte) {
	if h.archive == nil {
		return
	}
	if _, err := h.archive.Store(ctx, kind, data); err != nil {
		h.log.Warn("Failed to archive artifact", "kind", kind.String(), "err", err)
	}
}

func (h *Handler) respondError(w http.ResponseWriter, reqErr *RequestError) {
	if reqErr.StatusCode >= http.StatusInternalServerError {
		h.log.Error("Request failed", "status", reqErr.StatusCode, "err", reqErr.Err)
	} else {
		h.log.Debug("Request rejected", "status", reqErr.StatusCode, "err", reqErr.Err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(reqErr.StatusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": reqErr.Error()})
}

// seedFailureCode distinguishes degenerate enclave output (500) from enclave
// rejection and transport trouble (502).
func seedFailureCode(err error) int {
	if errors.Is(err, interfaces.ErrEmptySeed) {
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}
