package interfaces

import (
	"fmt"
	"math"
)

// EnclaveHandle identifies a created enclave instance. It is opaque to the
// host: the only valid operations are passing it back across the foreign-call
// boundary and comparing it for equality.
type EnclaveHandle uint64

// ENCRYPTED_SEED_SIZE is the exact length of the encrypted seed buffer
// returned by the seed-exchange enclave-call. It must match the constant
// compiled into the enclave.
const ENCRYPTED_SEED_SIZE = 48

// EncryptedSeed is the secret seed encrypted under the recipient
// certificate's public key. It is produced once per provisioning request and
// ownership transfers to the caller upon return.
type EncryptedSeed [ENCRYPTED_SEED_SIZE]byte

// RuntimeConfig holds the tunable runtime parameters passed into the enclave
// by the one-time configuration call. It crosses the trust boundary as a
// compact fixed-width record, so fields are fixed-width integers.
type RuntimeConfig struct {
	// ModuleCacheSize is the number of compiled WASM modules the enclave
	// keeps in its internal cache.
	ModuleCacheSize uint8
}

// NewRuntimeConfig builds a runtime configuration record from untrusted
// operator input, rejecting values that would truncate at the boundary.
func NewRuntimeConfig(moduleCacheSize int) (RuntimeConfig, error) {
	if moduleCacheSize < 0 || moduleCacheSize > math.MaxUint8 {
		return RuntimeConfig{}, fmt.Errorf("module cache size %d out of range [0, %d]", moduleCacheSize, math.MaxUint8)
	}
	return RuntimeConfig{ModuleCacheSize: uint8(moduleCacheSize)}, nil
}

// Report is a locally produced enclave report, input to quote generation.
type Report [432]byte

// TargetInfo describes the quoting enclave a report should target.
type TargetInfo [512]byte

// GroupID is the EPID group identifier of the platform.
type GroupID [4]byte

// SPID is the service-provider identifier registered with the attestation
// authority.
type SPID [16]byte

// QuoteNonce is the caller-supplied anti-replay nonce included in a quote.
type QuoteNonce [16]byte

// QuoteSignType selects linkable or unlinkable quote signatures.
type QuoteSignType uint32

const (
	UnlinkableQuote QuoteSignType = 0
	LinkableQuote   QuoteSignType = 1
)

// PlatformInfo is the opaque platform status blob returned by the attestation
// authority when the platform may need a TCB update.
type PlatformInfo [101]byte

// UpdateInfo describes which platform components require updates.
type UpdateInfo struct {
	UCodeUpdate  int32
	CSMEFwUpdate int32
	PSWUpdate    int32
}
