// Package attestation drives the remote-attestation protocol for the
// enclave: report generation, quote retrieval through the host-serviced
// outside-calls, and the encrypted-seed exchange that provisions the secret
// seed into an attested enclave.
//
// The flow itself imposes no retry policy. Report generation is
// deterministic given the platform state, so retrying belongs to the caller;
// ProduceReportWithRetry is the bounded, configurable wrapper for callers
// that want one.
package attestation
