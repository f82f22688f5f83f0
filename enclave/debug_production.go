//go:build production

package enclave

// Production builds create the enclave without debug support.
const enclaveDebug = false
