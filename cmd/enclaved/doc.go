// Package main (cmd/enclaved) implements the host daemon for the SGX compute
// enclave.
//
// The daemon loads and configures the enclave once at startup, then serves
// the provisioning API: seed exchange against a recipient certificate,
// on-demand attestation report production, and a public status endpoint.
// Every enclave call is admitted through a fixed pool of execution slots
// matching the enclave's thread control structures, so a saturated enclave
// turns into a 503 instead of a platform-level busy fault.
//
// Attestation supports a remote quoting service (--quote-provider-addr) or a
// dummy provider for development. The daemon currently drives a simulated
// enclave (--sgx-sim); hardware mode requires linking the platform loader.
//
// Produced artifacts (certificates, encrypted seeds, quotes) can optionally
// be archived to one or more artifact stores (--artifact-store, repeatable).
package main
