// Package cryptoutils provides the client-side cryptographic helpers around
// seed provisioning: generating the seed-exchange certificate the enclave
// encrypts the seed to, and sealing artifacts at rest under a
// passphrase-derived key.
package cryptoutils
