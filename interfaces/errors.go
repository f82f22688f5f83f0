package interfaces

import (
	"errors"
	"fmt"
)

// ErrEnclaveNotFound indicates the enclave image file was not present in any
// of the handle manager's search directories.
var ErrEnclaveNotFound = errors.New("enclave image not found")

// ErrEmptySeed indicates the seed-exchange call reported success but returned
// a zero buffer. This guards against a degenerate success status masking a
// logic fault inside the enclave.
var ErrEmptySeed = errors.New("enclave returned an empty encrypted seed")

// ErrNoIPv4Candidate indicates DNS resolution of the attestation authority
// yielded no IPv4 address. The authority socket is IPv4-only; this is
// unrecoverable within the outside-call rather than a reason to try IPv6.
var ErrNoIPv4Candidate = errors.New("no IPv4 candidate for attestation authority")

// CreationError reports that enclave creation itself failed, carrying the
// platform status (e.g. StatusNoDevice on non-SGX hardware).
type CreationError struct {
	Status Status
}

func (e *CreationError) Error() string {
	return fmt.Sprintf("enclave creation failed: %s", e.Status)
}

// TransportError reports that an enclave-call did not complete: the platform
// call mechanism itself failed, and the enclave-internal status is
// meaningless. Distinct from EnclaveError so callers can treat transport
// failures as potentially transient.
type TransportError struct {
	Status Status
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("enclave call did not complete: %s", e.Status)
}

// EnclaveError reports that an enclave-call completed but the enclave itself
// returned a non-success status.
type EnclaveError struct {
	Status Status
}

func (e *EnclaveError) Error() string {
	return fmt.Sprintf("enclave rejected the call: %s", e.Status)
}

// CallStatus maps a dual-status pair to an error: a TransportError when the
// call did not complete, an EnclaveError when the enclave reported failure,
// nil when both are success. The transport status takes precedence since the
// enclave-internal value is undefined when the call never ran.
func CallStatus(transport, retval Status) error {
	if !transport.Ok() {
		return &TransportError{Status: transport}
	}
	if !retval.Ok() {
		return &EnclaveError{Status: retval}
	}
	return nil
}
