package attestation

import (
	"log/slog"

	"github.com/ruteri/sgx-enclave-host/interfaces"
)

// Service orchestrates the attestation enclave-calls. It distinguishes
// transport failures (the call never completed) from enclave-internal
// rejections (the call completed and the enclave said no), so callers can
// decide what is worth retrying.
type Service struct {
	bridge interfaces.EnclaveBridge
	log    *slog.Logger
}

// NewService creates an attestation service issuing calls over the given
// bridge.
func NewService(bridge interfaces.EnclaveBridge, log *slog.Logger) *Service {
	return &Service{bridge: bridge, log: log}
}

// ProduceReport issues the report-generation enclave-call. While the call is
// in flight the enclave issues outside-calls (quote init, authority socket,
// quote retrieval) serviced by the host's OutsideCalls. Returns a
// TransportError or EnclaveError; no retry happens at this layer.
func (s *Service) ProduceReport(handle interfaces.EnclaveHandle) error {
	s.log.Debug("Producing attestation report")
	if err := interfaces.CallStatus(s.bridge.ProduceAttestationReport(handle)); err != nil {
		s.log.Error("Attestation report production failed", "err", err)
		return err
	}
	return nil
}

// GetEncryptedSeed issues the seed-exchange enclave-call, passing the
// recipient certificate the enclave encrypts the seed to. A zero buffer
// under a success status is rejected with ErrEmptySeed: a degenerate success
// must never hand out an unusable seed.
func (s *Service) GetEncryptedSeed(handle interfaces.EnclaveHandle, cert []byte) (interfaces.EncryptedSeed, error) {
	seed, transport, retval := s.bridge.GetEncryptedSeed(handle, cert)
	if err := interfaces.CallStatus(transport, retval); err != nil {
		s.log.Error("Seed exchange failed", "err", err)
		return interfaces.EncryptedSeed{}, err
	}

	if seed == (interfaces.EncryptedSeed{}) {
		s.log.Error("Got empty seed from encryption")
		return interfaces.EncryptedSeed{}, interfaces.ErrEmptySeed
	}

	return seed, nil
}
