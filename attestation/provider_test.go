package attestation

import (
	"encoding/hex"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

func TestRemoteQuoteProviderPassesQuoteParameters(t *testing.T) {
	var qeReport interfaces.Report
	copy(qeReport[:], []byte("quoting enclave report"))
	quoteBytes := []byte("signed quote bytes")

	var gotQuery url.Values
	var gotSigRL []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query()
		gotSigRL, _ = io.ReadAll(r.Body)
		w.Write(qeReport[:])
		w.Write(quoteBytes)
	}))
	defer srv.Close()

	provider := &RemoteQuoteProvider{Address: srv.URL}

	var nonce interfaces.QuoteNonce
	copy(nonce[:], []byte("0123456789abcdef"))
	sigRL := []byte{1, 2, 3, 4}

	quote, gotQE, status := provider.GetQuote(interfaces.Report{}, interfaces.LinkableQuote, interfaces.SPID{}, nonce, sigRL, 1116)
	require.Equal(t, interfaces.StatusSuccess, status)

	assert.Equal(t, hex.EncodeToString(nonce[:]), gotQuery.Get("nonce"))
	assert.Equal(t, "1116", gotQuery.Get("size"))
	assert.Equal(t, sigRL, gotSigRL)
	assert.Equal(t, qeReport, gotQE)
	assert.Equal(t, quoteBytes, quote)
}

func TestRemoteQuoteProviderRejectsShortQuoteResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("too short for a quoting enclave report"))
	}))
	defer srv.Close()

	provider := &RemoteQuoteProvider{Address: srv.URL}

	_, _, status := provider.GetQuote(interfaces.Report{}, interfaces.UnlinkableQuote, interfaces.SPID{}, interfaces.QuoteNonce{}, nil, 1116)
	assert.Equal(t, interfaces.StatusUnexpected, status)
}
