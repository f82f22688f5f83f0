// Package storage persists attestation artifacts: sealed encrypted seeds,
// quotes, and seed-exchange certificates. Artifacts are content-addressed by
// SHA-256 hash, so any backend can verify what it hands back.
//
// Backends are created from location URIs by ArtifactStoreFactory:
//
//   - file:///var/lib/enclaved - local filesystem
//   - s3://bucket/prefix?region=us-east-1 - Amazon S3 or compatible
//   - ipfs://host:port - IPFS node API
//   - vault://host:8200/secret/enclaved?token=... - HashiCorp Vault KV v2
//
// MultiStore aggregates several backends for redundancy: stores go to all,
// fetches return the first hit.
//
// Archiving is opt-in host configuration. The trust-management core never
// persists seeds on its own.
package storage
