package cryptoutils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSealUnsealRoundtrip(t *testing.T) {
	key := DeriveSealingKey([]byte("operator passphrase"), []byte("cert bytes"))
	require.Len(t, key, 32)

	secret := []byte("the encrypted seed buffer")
	sealed, err := Seal(key, secret)
	require.NoError(t, err)
	assert.NotEqual(t, secret, sealed)

	opened, err := Unseal(key, sealed)
	require.NoError(t, err)
	assert.Equal(t, secret, opened)
}

func TestUnsealWrongKeyFails(t *testing.T) {
	key := DeriveSealingKey([]byte("operator passphrase"), []byte("cert bytes"))
	sealed, err := Seal(key, []byte("secret"))
	require.NoError(t, err)

	wrong := DeriveSealingKey([]byte("other passphrase"), []byte("cert bytes"))
	_, err = Unseal(wrong, sealed)
	assert.Error(t, err)
}

func TestDeriveSealingKeyBindsContext(t *testing.T) {
	a := DeriveSealingKey([]byte("passphrase"), []byte("cert A"))
	b := DeriveSealingKey([]byte("passphrase"), []byte("cert B"))
	assert.NotEqual(t, a, b)
}

func TestCreateAndParseSeedExchangeCert(t *testing.T) {
	keyPEM, certPEM, err := CreateSeedExchangeCert("node.seed-exchange", 24*time.Hour)
	require.NoError(t, err)
	assert.NotEmpty(t, keyPEM)

	cert, err := ParseSeedExchangeCert(certPEM)
	require.NoError(t, err)
	assert.Equal(t, "node.seed-exchange", cert.Subject.CommonName)
}

func TestParseSeedExchangeCertRejectsGarbage(t *testing.T) {
	_, err := ParseSeedExchangeCert([]byte("not a certificate"))
	assert.Error(t, err)
}
