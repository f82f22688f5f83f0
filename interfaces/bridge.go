package interfaces

// EnclaveBridge is the set of calls the host issues into the enclave. Each
// call returns two status codes: transport is the platform call mechanism's
// verdict ("did the call complete"), retval is written by the enclave itself
// ("did the enclave accept it"). Both must be StatusSuccess for the call to
// have succeeded; callers should map the pair through CallStatus.
type EnclaveBridge interface {
	// ConfigureRuntime passes the runtime configuration record into the
	// enclave. Issued at most once per process by the configuration gate.
	ConfigureRuntime(handle EnclaveHandle, config RuntimeConfig) (transport, retval Status)

	// ProduceAttestationReport asks the enclave to generate and cache its
	// attestation report. The enclave issues outside-calls (quote init,
	// authority socket, quote retrieval) while servicing this.
	ProduceAttestationReport(handle EnclaveHandle) (transport, retval Status)

	// GetEncryptedSeed passes the recipient certificate into the enclave and
	// receives the seed encrypted to the certificate's public key.
	GetEncryptedSeed(handle EnclaveHandle, cert []byte) (seed EncryptedSeed, transport, retval Status)
}

// EnclaveLoader creates the single enclave instance from its image file.
// The launch token is always zeroed; platforms that require a real token
// obtain one through the launch service transparently.
type EnclaveLoader interface {
	// Create instantiates the enclave from the image at path. The debug flag
	// is selected at build time: debug builds allow introspection, production
	// builds must pass false.
	Create(path string, debug bool) (EnclaveHandle, Status)
}

// OutsideHandler services the calls the enclave issues back out to the host
// while an enclave-call is in flight. All methods are synchronous; the
// enclave thread blocks until they return.
type OutsideHandler interface {
	// InitQuote supplies the quoting-enclave target info and the platform's
	// EPID group id. Status is the underlying primitive's, verbatim.
	InitQuote() (TargetInfo, GroupID, Status)

	// GetAttestationSocket opens a direct connection to the attestation
	// authority and returns its raw file descriptor for use inside the
	// enclave's TLS stack.
	GetAttestationSocket() (fd int, status Status)

	// GetQuote turns a local report into a signed quote. The signature
	// revocation list may be empty.
	GetQuote(sigRL []byte, report Report, signType QuoteSignType, spid SPID, nonce QuoteNonce) (quote []byte, qeReport Report, status Status)

	// GetUpdateInfo relays the authority's platform status blob and trust
	// verdict into the platform primitive. Status is returned verbatim.
	GetUpdateInfo(platformBlob PlatformInfo, enclaveTrusted bool) (UpdateInfo, Status)
}

// QuoteProvider is the underlying platform quoting primitive. On SGX hardware
// this is backed by the AESM service; tests and simulation mode substitute
// their own implementations.
type QuoteProvider interface {
	InitQuote() (TargetInfo, GroupID, Status)
	CalcQuoteSize(sigRL []byte) (uint32, Status)
	GetQuote(report Report, signType QuoteSignType, spid SPID, nonce QuoteNonce, sigRL []byte, quoteSize uint32) (quote []byte, qeReport Report, status Status)
	ReportAttestationStatus(platformBlob PlatformInfo, enclaveTrusted bool) (UpdateInfo, Status)
}
