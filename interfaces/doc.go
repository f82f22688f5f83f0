// Package interfaces defines the contracts between the components of the
// enclave host without implementation details.
//
// The central piece is the foreign-call bridge: the narrow, typed surface of
// calls crossing into the enclave (enclave-calls) and calls the enclave
// issues back out to the host while one of those is in flight
// (outside-calls). Everything else in this repository is built on top of it.
//
// Every call into the enclave produces two status codes: a transport status
// reported by the platform call mechanism, and an enclave-internal status
// written by the code running inside the enclave. The two are never collapsed
// into a single error kind; see TransportError and EnclaveError.
package interfaces
