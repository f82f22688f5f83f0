package attestation

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

// RemoteQuoteProvider delegates quoting to an HTTP quote service, for hosts
// where the quoting infrastructure runs in a separate container with device
// access.
type RemoteQuoteProvider struct {
	// Address is the base URL of the quote service.
	Address string
}

func (p *RemoteQuoteProvider) InitQuote() (interfaces.TargetInfo, interfaces.GroupID, interfaces.Status) {
	var ti interfaces.TargetInfo
	var gid interfaces.GroupID

	body, err := p.get(fmt.Sprintf("%s/target_info", p.Address))
	if err != nil || len(body) < len(ti)+len(gid) {
		return ti, gid, interfaces.StatusServiceUnavailable
	}

	copy(ti[:], body[:len(ti)])
	copy(gid[:], body[len(ti):len(ti)+len(gid)])
	return ti, gid, interfaces.StatusSuccess
}

func (p *RemoteQuoteProvider) CalcQuoteSize(sigRL []byte) (uint32, interfaces.Status) {
	body, err := p.get(fmt.Sprintf("%s/quote_size/%d", p.Address, len(sigRL)))
	if err != nil {
		return 0, interfaces.StatusServiceUnavailable
	}

	size, err := strconv.ParseUint(string(body), 10, 32)
	if err != nil {
		return 0, interfaces.StatusUnexpected
	}
	return uint32(size), interfaces.StatusSuccess
}

// GetQuote posts the signature-revocation list to the quote endpoint with
// the report, sign type, SPID, nonce, and expected size as parameters. The
// service responds with the quoting enclave's report followed by the quote
// bytes.
func (p *RemoteQuoteProvider) GetQuote(report interfaces.Report, signType interfaces.QuoteSignType, spid interfaces.SPID, nonce interfaces.QuoteNonce, sigRL []byte, quoteSize uint32) ([]byte, interfaces.Report, interfaces.Status) {
	url := fmt.Sprintf("%s/quote/%s?sign_type=%d&spid=%s&nonce=%s&size=%d",
		p.Address, hex.EncodeToString(report[:]), signType,
		hex.EncodeToString(spid[:]), hex.EncodeToString(nonce[:]), quoteSize)

	body, err := p.post(url, sigRL)
	if err != nil {
		return nil, interfaces.Report{}, interfaces.StatusServiceUnavailable
	}

	var qeReport interfaces.Report
	if len(body) < len(qeReport) {
		return nil, interfaces.Report{}, interfaces.StatusUnexpected
	}
	copy(qeReport[:], body[:len(qeReport)])
	return body[len(qeReport):], qeReport, interfaces.StatusSuccess
}

func (p *RemoteQuoteProvider) ReportAttestationStatus(platformBlob interfaces.PlatformInfo, enclaveTrusted bool) (interfaces.UpdateInfo, interfaces.Status) {
	// The remote service has no platform to update; report the platform as
	// unrecognized so callers surface the blob to the operator.
	return interfaces.UpdateInfo{}, interfaces.StatusUnrecognizedPlatform
}

func (p *RemoteQuoteProvider) get(url string) ([]byte, error) {
	resp, err := http.DefaultClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("calling remote quote provider: %w", err)
	}
	return p.readResponse(resp)
}

func (p *RemoteQuoteProvider) post(url string, body []byte) ([]byte, error) {
	resp, err := http.DefaultClient.Post(url, "application/octet-stream", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("calling remote quote provider: %w", err)
	}
	return p.readResponse(resp)
}

func (p *RemoteQuoteProvider) readResponse(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("remote quote provider returned status %d: %s", resp.StatusCode, string(body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading remote quote provider response: %w", err)
	}
	return body, nil
}

// DummyQuoteProvider fabricates structurally valid quoting results for
// simulation mode and tests. Nothing it produces is verifiable.
type DummyQuoteProvider struct{}

// dummyQuoteSize approximates an EPID quote with an empty signature
// revocation list.
const dummyQuoteSize = 1116

func (DummyQuoteProvider) InitQuote() (interfaces.TargetInfo, interfaces.GroupID, interfaces.Status) {
	return interfaces.TargetInfo{}, interfaces.GroupID{}, interfaces.StatusSuccess
}

func (DummyQuoteProvider) CalcQuoteSize(sigRL []byte) (uint32, interfaces.Status) {
	return dummyQuoteSize + uint32(len(sigRL)), interfaces.StatusSuccess
}

func (DummyQuoteProvider) GetQuote(report interfaces.Report, signType interfaces.QuoteSignType, spid interfaces.SPID, nonce interfaces.QuoteNonce, sigRL []byte, quoteSize uint32) ([]byte, interfaces.Report, interfaces.Status) {
	quote := make([]byte, quoteSize)
	digest := sha256.Sum256(report[:])
	for i := 0; i < len(quote); i += len(digest) {
		copy(quote[i:], digest[:])
	}
	return quote, interfaces.Report{}, interfaces.StatusSuccess
}

func (DummyQuoteProvider) ReportAttestationStatus(platformBlob interfaces.PlatformInfo, enclaveTrusted bool) (interfaces.UpdateInfo, interfaces.Status) {
	return interfaces.UpdateInfo{}, interfaces.StatusSuccess
}
