// Package enclave owns the host side of the enclave lifecycle: locating and
// creating the single enclave instance, the one-time runtime configuration
// call, and the doorbell that gates concurrent entry into the enclave's
// limited TCS slots.
//
// All state is explicitly constructed and dependency-injected through Host
// rather than held in package globals, so tests can build fresh instances per
// case. The single-initialization semantics the process relies on (one
// enclave, one configuration call) live in HandleManager and ConfigGate
// respectively.
package enclave
