//go:build !production

package enclave

// enclaveDebug enables enclave introspection in non-production builds.
const enclaveDebug = true
