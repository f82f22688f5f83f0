package enclave

import (
	"crypto/rand"
	"crypto/sha256"
	"sync"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

// SimLoader stands in for the platform enclave loader in simulation mode and
// in tests. It accepts any image path.
type SimLoader struct{}

func (SimLoader) Create(path string, debug bool) (interfaces.EnclaveHandle, interfaces.Status) {
	return interfaces.EnclaveHandle(1), interfaces.StatusSuccess
}

// SimBridge emulates the enclave side of the foreign-call bridge so the full
// host stack can run without SGX hardware. If an OutsideHandler is attached,
// report production drives the same outside-calls a real enclave would issue
// (quote init, quote retrieval).
//
// The "encrypted" seed it returns is a deterministic digest of the sim
// secret and the recipient certificate. It provides no confidentiality and
// exists only so callers see a well-formed, non-empty buffer.
type SimBridge struct {
	// Outside services the enclave-initiated calls during report
	// production. Optional; when nil, report production succeeds without
	// producing a quote.
	Outside interfaces.OutsideHandler

	mu         sync.Mutex
	secret     [32]byte
	configured bool
	config     interfaces.RuntimeConfig
	quote      []byte
}

// NewSimBridge creates a simulated enclave with a random seed secret.
func NewSimBridge(outside interfaces.OutsideHandler) (*SimBridge, error) {
	b := &SimBridge{Outside: outside}
	if _, err := rand.Read(b.secret[:]); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *SimBridge) ConfigureRuntime(handle interfaces.EnclaveHandle, config interfaces.RuntimeConfig) (interfaces.Status, interfaces.Status) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.configured = true
	b.config = config
	return interfaces.StatusSuccess, interfaces.StatusSuccess
}

func (b *SimBridge) ProduceAttestationReport(handle interfaces.EnclaveHandle) (interfaces.Status, interfaces.Status) {
	if b.Outside == nil {
		return interfaces.StatusSuccess, interfaces.StatusSuccess
	}

	_, _, status := b.Outside.InitQuote()
	if !status.Ok() {
		return interfaces.StatusSuccess, status
	}

	var report interfaces.Report
	digest := sha256.Sum256(b.secret[:])
	copy(report[:], digest[:])

	quote, _, status := b.Outside.GetQuote(nil, report, interfaces.UnlinkableQuote, interfaces.SPID{}, interfaces.QuoteNonce{})
	if !status.Ok() {
		return interfaces.StatusSuccess, status
	}

	b.mu.Lock()
	b.quote = quote
	b.mu.Unlock()
	return interfaces.StatusSuccess, interfaces.StatusSuccess
}

func (b *SimBridge) GetEncryptedSeed(handle interfaces.EnclaveHandle, cert []byte) (interfaces.EncryptedSeed, interfaces.Status, interfaces.Status) {
	var seed interfaces.EncryptedSeed
	if len(cert) == 0 {
		return seed, interfaces.StatusSuccess, interfaces.StatusInvalidParameter
	}

	first := sha256.Sum256(append(b.secret[:], cert...))
	second := sha256.Sum256(first[:])
	copy(seed[:32], first[:])
	copy(seed[32:], second[:])
	return seed, interfaces.StatusSuccess, interfaces.StatusSuccess
}

// Configured reports whether the configuration call reached the simulated
// enclave, and with what record.
func (b *SimBridge) Configured() (bool, interfaces.RuntimeConfig) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.configured, b.config
}

// Quote returns the quote produced by the last successful report call.
func (b *SimBridge) Quote() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.quote
}
