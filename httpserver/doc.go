// Package httpserver exposes the enclave host's provisioning API: seed
// exchange and attestation report production, gated by the enclave doorbell,
// plus the usual liveness, readiness, and drain endpoints.
package httpserver
