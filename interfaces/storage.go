package interfaces

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ArtifactID is a 32-byte SHA-256 hash uniquely identifying an attestation
// artifact. Artifacts are content-addressed: the ID of a blob is always the
// hash of its bytes.
type ArtifactID [32]byte

// NewArtifactIDFromBytes creates an artifact ID from a raw 32-byte slice.
func NewArtifactIDFromBytes(source []byte) (ArtifactID, error) {
	if len(source) != 32 {
		return ArtifactID{}, errors.New("invalid ArtifactID conversion from bytes: incorrect length")
	}

	var hash [32]byte
	copy(hash[:], source)
	return ArtifactID(hash), nil
}

// NewArtifactIDFromHex creates an artifact ID from a 64-character hex string.
func NewArtifactIDFromHex(source string) (ArtifactID, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return ArtifactID{}, errors.New("invalid artifact ID length: hex string must be 64 characters")
	}

	hashBytes, err := hex.DecodeString(clean)
	if err != nil {
		return ArtifactID{}, fmt.Errorf("invalid hex format: %w", err)
	}

	var hash [32]byte
	copy(hash[:], hashBytes)
	return ArtifactID(hash), nil
}

// ComputeArtifactID calculates the content-addressed ID of data.
func ComputeArtifactID(data []byte) ArtifactID {
	hash := sha256.Sum256(data)
	return ArtifactID(hash)
}

// String returns hex representation.
func (id ArtifactID) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw 32-byte hash.
func (id ArtifactID) Bytes() []byte {
	return id[:]
}

// Equal compares two artifact IDs.
func (id ArtifactID) Equal(other ArtifactID) bool {
	return bytes.Equal(id[:], other[:])
}

// ArtifactKind indicates the storage namespace of an artifact.
type ArtifactKind int

const (
	// SeedArtifact for sealed encrypted-seed buffers.
	SeedArtifact ArtifactKind = iota
	// QuoteArtifact for attestation quotes.
	QuoteArtifact
	// CertArtifact for seed-exchange certificates.
	CertArtifact
)

// String returns the kind name.
func (k ArtifactKind) String() string {
	switch k {
	case SeedArtifact:
		return "seed"
	case QuoteArtifact:
		return "quote"
	case CertArtifact:
		return "cert"
	default:
		return "unknown"
	}
}

// ErrArtifactNotFound indicates the requested artifact does not exist in the
// backend.
var ErrArtifactNotFound = errors.New("artifact not found")

// ErrInvalidLocationURI indicates a malformed or unsupported backend URI.
var ErrInvalidLocationURI = errors.New("invalid storage location URI")

// ErrBackendUnavailable indicates the backend could not be reached.
var ErrBackendUnavailable = errors.New("storage backend unavailable")

// ArtifactStoreLocation is a backend URI such as file:///var/lib/enclaved or
// s3://bucket/prefix?region=us-east-1.
type ArtifactStoreLocation string

// ArtifactStore persists attestation artifacts. Archiving is opt-in host
// configuration; the trust-management core itself never persists anything
// implicitly.
type ArtifactStore interface {
	// Store persists data under its content hash and returns the ID.
	Store(ctx context.Context, kind ArtifactKind, data []byte) (ArtifactID, error)

	// Fetch retrieves an artifact by ID. Returns ErrArtifactNotFound if the
	// backend does not have it.
	Fetch(ctx context.Context, kind ArtifactKind, id ArtifactID) ([]byte, error)

	// Available reports whether the backend is reachable.
	Available(ctx context.Context) bool

	// LocationURI returns the URI this backend was created from.
	LocationURI() ArtifactStoreLocation
}

// ArtifactStoreFactory creates artifact stores from location URIs.
type ArtifactStoreFactory interface {
	StoreFor(location ArtifactStoreLocation) (ArtifactStore, error)
	CreateMultiStore(locations []ArtifactStoreLocation) (ArtifactStore, error)
}
