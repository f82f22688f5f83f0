package cryptoutils

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// SeedExchangeCert is a PEM-encoded self-signed certificate whose public key
// the enclave encrypts the seed to.
type SeedExchangeCert []byte

// CreateSeedExchangeCert generates a fresh ECDSA P-256 key pair and a
// self-signed certificate with the given common name. The enclave only uses
// the certificate's public key; the chain of trust does not matter.
//
// Returns the private key in PEM format and the certificate.
func CreateSeedExchangeCert(cn string, validity time.Duration) ([]byte, SeedExchangeCert, error) {
	privateKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return nil, nil, err
	}

	serial, err := rand.Int(rand.Reader, big.NewInt(1).Lsh(big.NewInt(1), 128))
	if err != nil {
		return nil, nil, err
	}

	template := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName: cn,
		},
		NotBefore:          time.Now(),
		NotAfter:           time.Now().Add(validity),
		SignatureAlgorithm: x509.ECDSAWithSHA256,
	}

	certDER, err := x509.CreateCertificate(rand.Reader, template, template, privateKey.Public(), privateKey)
	if err != nil {
		return nil, nil, err
	}

	certPEM := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: certDER})

	privateKeyBytes, err := x509.MarshalPKCS8PrivateKey(privateKey)
	if err != nil {
		return nil, nil, err
	}

	keyPEM := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privateKeyBytes})
	return keyPEM, SeedExchangeCert(certPEM), nil
}

// ParseSeedExchangeCert validates that the PEM blob is a parseable
// certificate with an ECDSA public key, and returns the parsed certificate.
func ParseSeedExchangeCert(certPEM []byte) (*x509.Certificate, error) {
	block, _ := pem.Decode(certPEM)
	if block == nil || block.Type != "CERTIFICATE" {
		return nil, errors.New("failed to decode certificate PEM block")
	}

	cert, err := x509.ParseCertificate(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse certificate: %w", err)
	}

	if _, ok := cert.PublicKey.(*ecdsa.PublicKey); !ok {
		return nil, errors.New("seed exchange requires an ECDSA public key")
	}

	return cert, nil
}
